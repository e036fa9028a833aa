package out_test

import (
	"context"
	"encoding/json"
	"testing"

	backenddto "devdeck/internal/modules/backend/dto"
	out "devdeck/internal/modules/versions/adapter/out"
	"devdeck/internal/modules/versions/domain"
)

type runtimeGateway struct {
	ops []backenddto.Operation
}

func (g *runtimeGateway) Invoke(_ context.Context, op backenddto.Operation, _ any, dst any) error {
	g.ops = append(g.ops, op)
	raw, _ := json.Marshal([]backenddto.RuntimeVersion{
		{Name: "Rust", Version: "1.77.0", Path: "/home/u/.cargo/bin/rustc", Manager: "rustup"},
		{Name: "Go"},
	})
	return json.Unmarshal(raw, dst)
}

func TestGatewayRuntimes(t *testing.T) {
	t.Parallel()
	gateway := &runtimeGateway{}
	runtimes, err := out.NewGatewayRuntimes(gateway).Runtimes(context.Background())
	if err != nil {
		t.Fatalf("runtimes: %v", err)
	}
	if len(gateway.ops) != 1 || gateway.ops[0] != backenddto.OpRuntimeVersions {
		t.Fatalf("unexpected calls: %v", gateway.ops)
	}
	want := domain.Runtime{Name: "Rust", Version: "1.77.0", Path: "/home/u/.cargo/bin/rustc", Manager: "rustup"}
	if len(runtimes) != 2 || runtimes[0] != want || runtimes[1].Installed() {
		t.Fatalf("unexpected runtimes: %+v", runtimes)
	}
}
