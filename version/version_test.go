package version

import "testing"

func saveAndRestore() func() {
	v, c, b := Version, GitCommit, BuildTime
	return func() { Version, GitCommit, BuildTime = v, c, b }
}

func TestGetDefaults(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "dev", "", ""

	info := Get()
	if info.Version != "dev" {
		t.Errorf("expected version 'dev', got %q", info.Version)
	}
	if info.IsRelease {
		t.Error("dev should not be a release")
	}
}

func TestGetStamped(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "1.4.0", "abc1234def", "2026-01-15T10:30:00Z"

	info := Get()
	if !info.IsRelease {
		t.Error("1.4.0 should be a release")
	}
	if info.GitCommit != "abc1234" {
		t.Errorf("expected commit truncated to 'abc1234', got %q", info.GitCommit)
	}
	if info.BuildDate.Year() != 2026 {
		t.Errorf("expected build year 2026, got %d", info.BuildDate.Year())
	}
}

func TestDirtyIsNotRelease(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.4.0-dirty"

	if Get().IsRelease {
		t.Error("dirty version should not be a release")
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", GitCommit: "abc1234", IsDirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.info.Short(); got != tt.want {
			t.Errorf("Short() = %q, want %q", got, tt.want)
		}
	}
}
