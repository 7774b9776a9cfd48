package progression

import "testing"

func TestLevelForExperience(t *testing.T) {
	tests := []struct {
		name string
		exp  int64
		want int
	}{
		{name: "zero", exp: 0, want: 1},
		{name: "negative clamps to one", exp: -50, want: 1},
		{name: "just below level 2", exp: 99, want: 1},
		{name: "level 2 boundary", exp: 100, want: 2},
		{name: "level 3 boundary", exp: 400, want: 3},
		{name: "mid curve", exp: 10000, want: 11},
		{name: "high wealth grinder", exp: 250000, want: 51},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LevelForExperience(tt.exp); got != tt.want {
				t.Errorf("LevelForExperience(%d) = %d, want %d", tt.exp, got, tt.want)
			}
		})
	}
}

func TestLevelCurveMonotonic(t *testing.T) {
	prev := LevelForExperience(0)
	for exp := int64(0); exp <= 300000; exp += 37 {
		level := LevelForExperience(exp)
		if level < prev {
			t.Fatalf("level curve decreased at exp=%d: %d -> %d", exp, prev, level)
		}
		prev = level
	}
}

func TestExperienceForLevelRoundTrip(t *testing.T) {
	for level := 1; level <= 60; level++ {
		exp := ExperienceForLevel(level)
		if got := LevelForExperience(exp); got != level {
			t.Errorf("LevelForExperience(ExperienceForLevel(%d)) = %d", level, got)
		}
		if level > 1 {
			if got := LevelForExperience(exp - 1); got != level-1 {
				t.Errorf("one exp below level %d boundary gave level %d", level, got)
			}
		}
	}
}

func TestTierForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  Tier
	}{
		{1, TierRookie},
		{4, TierRookie},
		{5, TierHustler},
		{11, TierHustler},
		{12, TierEnforcer},
		{19, TierEnforcer},
		{20, TierCapo},
		{34, TierCapo},
		{35, TierBoss},
		{49, TierBoss},
		{50, TierKingpin},
		{120, TierKingpin},
	}

	for _, tt := range tests {
		if got := TierForLevel(tt.level); got != tt.want {
			t.Errorf("TierForLevel(%d) = %s, want %s", tt.level, got, tt.want)
		}
	}
}

func TestTierNames(t *testing.T) {
	if TierKingpin.String() != "kingpin" {
		t.Errorf("unexpected tier name %q", TierKingpin.String())
	}
	if TierKingpin.Display() != "Kingpin" {
		t.Errorf("unexpected display name %q", TierKingpin.Display())
	}
	if Tier(99).String() != "rookie" {
		t.Errorf("out-of-range tier should fall back to rookie")
	}
}
