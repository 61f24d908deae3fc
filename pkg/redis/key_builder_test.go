package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilder_Build(t *testing.T) {
	kb := NewKeyBuilder("crickarena:dev")
	assert.Equal(t, "crickarena:dev:auction:state:league-1", kb.AuctionStateKey("league-1"))
	assert.Equal(t, "crickarena:dev:auction:lease:bid:league-1", kb.SerializerLeaseKey("bid", "league-1"))
	assert.Equal(t, "crickarena:dev:auction:lease:control:league-1", kb.SerializerLeaseKey("control", "league-1"))
}
