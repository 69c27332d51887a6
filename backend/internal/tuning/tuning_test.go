package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadPartialFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tuning.yaml", "charge_strength: -250\nlink_distance: 120\n")

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.ChargeStrength == nil || *p.ChargeStrength != -250 {
		t.Errorf("charge_strength = %v, want -250", p.ChargeStrength)
	}
	if p.LinkDistance == nil || *p.LinkDistance != 120 {
		t.Errorf("link_distance = %v, want 120", p.LinkDistance)
	}
	if p.LinkStrength != nil || p.CenterStrength != nil || p.VelocityDecay != nil {
		t.Errorf("unset fields should stay nil, got %+v", p)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"zero distance":  "link_distance: 0\n",
		"decay too high": "velocity_decay: 1.0\n",
		"negative link":  "link_strength: -0.5\n",
		"not yaml":       "{{{\n",
	}
	dir := t.TempDir()
	for name, content := range cases {
		path := writeFile(t, dir, "bad.yaml", content)
		if _, err := Load(path); err == nil {
			t.Errorf("%s: Load accepted %q", name, content)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load accepted a missing file")
	}
}
