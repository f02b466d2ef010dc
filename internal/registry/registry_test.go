package registry

import (
	"testing"

	"github.com/vovakirdan/lunar-lander/internal/core"
	"github.com/vovakirdan/lunar-lander/internal/protocol"
)

type constPolicy struct {
	name   string
	action core.Control
}

func (p *constPolicy) Name() string        { return p.name }
func (p *constPolicy) Description() string { return "always " + p.action.String() }
func (p *constPolicy) Reset()              {}
func (p *constPolicy) Act(protocol.Observation) protocol.StepRequest {
	return protocol.StepRequest{Action: p.action}
}

func TestRegisterCreateList(t *testing.T) {
	Register("test-fire", func(int64) Policy { return &constPolicy{name: "test-fire", action: core.ControlFire} })
	Register("test-aaa", func(int64) Policy { return &constPolicy{name: "test-aaa", action: core.ControlNone} })

	if !Exists("test-fire") {
		t.Fatal("registered policy not found")
	}

	p, err := Create("test-fire", 1)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if got := p.Act(protocol.Observation{}).Action; got != core.ControlFire {
		t.Errorf("Act() = %v, expected FIRE", got)
	}

	list := List()
	for i := 1; i < len(list); i++ {
		if list[i-1].Name > list[i].Name {
			t.Errorf("List() not sorted: %q before %q", list[i-1].Name, list[i].Name)
		}
	}
	var found bool
	for _, info := range list {
		if info.Name == "test-fire" {
			found = true
			if info.Description != "always "+core.ControlFire.String() {
				t.Errorf("Description = %q", info.Description)
			}
		}
	}
	if !found {
		t.Error("List() missing test-fire")
	}
}

func TestCreateUnknown(t *testing.T) {
	if _, err := Create("does-not-exist", 0); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("test-dup", func(int64) Policy { return &constPolicy{name: "test-dup"} })

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register should panic")
		}
	}()
	Register("test-dup", func(int64) Policy { return &constPolicy{name: "test-dup"} })
}
