package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnlyTCPHooksAreRequired(t *testing.T) {
	for _, h := range hooks {
		switch h.symbol {
		case "tcp_sendmsg", "tcp_cleanup_rbuf":
			assert.True(t, h.required, h.symbol)
		default:
			assert.False(t, h.required, h.symbol)
		}
	}
}

func TestUDPRecvHasEntryAndReturnHook(t *testing.T) {
	var entry, ret bool
	for _, h := range hooks {
		if h.symbol != "udp_recvmsg" {
			continue
		}
		if h.ret {
			ret = true
		} else {
			entry = true
		}
	}
	assert.True(t, entry)
	assert.True(t, ret)
}
