package errno_test

import (
	"errors"
	"testing"

	"github.com/embedstack/socketcore/internal/errno"
)

func TestFromStatusTimeoutDependsOnBlocking(t *testing.T) {
	blocking := errno.FromStatus("recv", errno.StatusTimeout, true, nil)
	if !errors.Is(blocking, errno.Sentinel(errno.ETIMEDOUT)) {
		t.Fatalf("blocking timeout = %v, want ETIMEDOUT", blocking)
	}
	nonBlocking := errno.FromStatus("recv", errno.StatusTimeout, false, nil)
	if !errors.Is(nonBlocking, errno.Sentinel(errno.EAGAIN)) {
		t.Fatalf("non-blocking timeout = %v, want EAGAIN", nonBlocking)
	}
}

func TestFromStatusEndOfStreamHasNoError(t *testing.T) {
	if err := errno.FromStatus("recv", errno.StatusEndOfStream, true, nil); err != nil {
		t.Fatalf("end-of-stream should map to nil, got %v", err)
	}
}

func TestFromStatusOK(t *testing.T) {
	if err := errno.FromStatus("bind", errno.StatusOK, true, nil); err != nil {
		t.Fatalf("OK should map to nil, got %v", err)
	}
}

func TestAddrInfoCode(t *testing.T) {
	if got := errno.AddrInfoCode(errno.StatusInProgress); got != errno.EAIAgain {
		t.Fatalf("AddrInfoCode(in-progress) = %v, want EAI_AGAIN", got)
	}
	if got := errno.AddrInfoCode(errno.StatusConnectionReset); got != errno.EAIFail {
		t.Fatalf("AddrInfoCode(other) = %v, want EAI_FAIL", got)
	}
}
