package docstore

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ledgerd/modules"
)

func TestClassifyErrMapsGRPCCodes(t *testing.T) {
	cases := []struct {
		code codes.Code
		want modules.Kind
	}{
		{codes.PermissionDenied, modules.KindStoragePermissionDenied},
		{codes.Unauthenticated, modules.KindStoragePermissionDenied},
		{codes.DeadlineExceeded, modules.KindStorageTimeout},
		{codes.Unavailable, modules.KindStorageUnavailable},
	}
	for _, c := range cases {
		err := classifyErr(status.Error(c.code, "boom"))
		if got := modules.KindOf(err); got != c.want {
			t.Errorf("code %s: expected Kind %s, got %s", c.code, c.want, got)
		}
	}
}

func TestClassifyErrHandlesNonGRPCErrors(t *testing.T) {
	err := classifyErr(errors.New("some non-grpc failure"))
	if got := modules.KindOf(err); got != modules.KindStorageUnavailable {
		t.Fatalf("expected KindStorageUnavailable for a non-gRPC error, got %s", got)
	}
}

func TestClassifyErrNilIsNil(t *testing.T) {
	if err := classifyErr(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestCollAppliesPrefix(t *testing.T) {
	s := &Store{prefix: "staging"}
	if got := s.coll(collBlocks); got != "staging_blocks" {
		t.Fatalf("expected staging_blocks, got %s", got)
	}

	unprefixed := &Store{}
	if got := unprefixed.coll(collBlocks); got != collBlocks {
		t.Fatalf("expected unprefixed collection name %s, got %s", collBlocks, got)
	}
}
