package merge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillchef/pkg/diff"
	"github.com/jingkaihe/skillchef/pkg/skills"
)

var sampleBases = []string{
	"",
	"# Demo\n\nv1\n",
	"# Demo\n\nv1",
	"# Demo\n\nv1\n\n\n",
	"---\nname: demo\ndescription: A demo\n---\n# Demo\n\nBody text.\n",
	"---\nname: demo\n---\n",
	"trailing spaces   \n",
	"# Demo\n\n## Usage\n\n- one\n- two\n",
}

var sampleFlavors = []string{
	"Keep X",
	"Keep X\n",
	"\n\n  Prefer tabs.\n\n",
	"- always run tests\n- never push to main\n",
}

func TestMergeSkillText(t *testing.T) {
	t.Run("appends flavor section", func(t *testing.T) {
		merged := MergeSkillText("# Demo\n\nv1\n", "Keep X\n")
		assert.Equal(t, "# Demo\n\nv1\n\n## Local Flavor\n\nKeep X\n", merged)
	})

	t.Run("keeps frontmatter as prefix", func(t *testing.T) {
		merged := MergeSkillText("---\nname: demo\n---\n# Demo\n\n\n", "  Keep X  ")
		assert.Equal(t, "---\nname: demo\n---\n# Demo\n\n## Local Flavor\n\nKeep X\n", merged)
	})

	t.Run("empty flavor is a no-op", func(t *testing.T) {
		for _, base := range sampleBases {
			assert.Equal(t, skills.EnsureNewline(base), MergeSkillText(base, ""), "base %q", base)
			assert.Equal(t, skills.EnsureNewline(base), MergeSkillText(base, " \n\t"), "base %q", base)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		for _, base := range sampleBases {
			for _, flavor := range sampleFlavors {
				assert.Equal(t, MergeSkillText(base, flavor), MergeSkillText(base, flavor))
			}
		}
	})
}

func TestMergeRoundTrip(t *testing.T) {
	for _, base := range sampleBases {
		for _, flavor := range sampleFlavors {
			_, extracted := skills.SplitLocalFlavorSection(MergeSkillText(base, flavor))
			require.NotNil(t, extracted, "base %q flavor %q", base, flavor)
			assert.Equal(t, trim(flavor), trim(*extracted), "base %q flavor %q", base, flavor)
		}
	}
}

func TestFlavorOnlyChangesAreNotConflicts(t *testing.T) {
	for _, base := range sampleBases {
		for _, flavor := range sampleFlavors {
			merged := MergeSkillText(base, flavor)
			assert.False(t, diff.HasNonFlavorLocalChanges(base, merged), "base %q flavor %q", base, flavor)
		}
	}
}

func TestClassify(t *testing.T) {
	base := "# Demo\n\nv1\n"
	live := MergeSkillText(base, "Keep X\n")

	assert.Equal(t, BranchNoFlavor, Classify(false, base, live))
	assert.Equal(t, BranchNoFlavor, Classify(false, base, base+"manual\n"))
	assert.Equal(t, BranchNoConflict, Classify(true, base, live))
	assert.Equal(t, BranchNoConflict, Classify(true, base, base))

	edited := "# Demo\n\nv1\nmanual tweak\n\n## Local Flavor\n\nKeep X\n"
	assert.Equal(t, BranchConflict, Classify(true, base, edited))
}

func TestClassifyCRLFLive(t *testing.T) {
	base := "# Demo\r\n\r\nv1\r\n"
	live := "# Demo\r\n\r\nv1\r\n\r\n## Local Flavor\r\n\r\nKeep X\r\n"

	assert.Equal(t, BranchNoConflict, Classify(true, base, live))

	text, diverged := EffectiveFlavor(live, "Keep X\n")
	assert.Equal(t, "Keep X", text)
	assert.False(t, diverged)
}

func TestBranchString(t *testing.T) {
	assert.Equal(t, "no-flavor", BranchNoFlavor.String())
	assert.Equal(t, "no-conflict", BranchNoConflict.String())
	assert.Equal(t, "conflict", BranchConflict.String())
	assert.Equal(t, "branch(7)", Branch(7).String())
}

func TestEffectiveFlavor(t *testing.T) {
	base := "# Demo\n\nv1\n"

	t.Run("live matches flavor file", func(t *testing.T) {
		text, diverged := EffectiveFlavor(MergeSkillText(base, "Keep X"), "Keep X\n")
		assert.Equal(t, "Keep X", text)
		assert.False(t, diverged)
	})

	t.Run("live section edited", func(t *testing.T) {
		live := MergeSkillText(base, "Keep X and Y")
		text, diverged := EffectiveFlavor(live, "Keep X\n")
		assert.Equal(t, "Keep X and Y", text)
		assert.True(t, diverged)
	})

	t.Run("live has no section", func(t *testing.T) {
		text, diverged := EffectiveFlavor(base, "  Keep X\n")
		assert.Equal(t, "Keep X", text)
		assert.False(t, diverged)
	})
}

func TestSameDocument(t *testing.T) {
	assert.True(t, SameDocument("a\n", "a"))
	assert.True(t, SameDocument("a\n\n\n", "a\n"))
	assert.False(t, SameDocument("a\n", "b\n"))
	assert.False(t, SameDocument("\na", "a"))
}

func TestThreeWaySummary(t *testing.T) {
	assert.Equal(t, "upstream unchanged, no local flavor", ThreeWaySummary("a\n", "a\n", ""))
	assert.Equal(t, "upstream changed (+1 -1), local flavor of 1 line", ThreeWaySummary("v1\n", "v2\n", "Keep X\n"))
	assert.Equal(t, "upstream changed (+1 -0), local flavor of 2 lines", ThreeWaySummary("v1\n", "v1\nv2\n", "a\nb"))
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
