package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veriwork/trustengine/internal/domain"
)

func TestHelpfulness(t *testing.T) {
	assert.Equal(t, 0.0, Helpfulness(0, 0, false))
	assert.Equal(t, 3.0, Helpfulness(5, 2, false))
	assert.Equal(t, -2.0, Helpfulness(0, 2, false))
	assert.Equal(t, 3.0+domain.VerifiedHelpfulnessBonus, Helpfulness(5, 2, true))
}

func TestHelpfulness_Monotonic(t *testing.T) {
	prev := Helpfulness(0, 3, false)
	for up := 1; up <= 10; up++ {
		cur := Helpfulness(up, 3, false)
		assert.Greater(t, cur, prev)
		prev = cur
	}

	prev = Helpfulness(5, 0, false)
	for down := 1; down <= 10; down++ {
		cur := Helpfulness(5, down, false)
		assert.Less(t, cur, prev)
		prev = cur
	}
}

func TestCredibility(t *testing.T) {
	unverified := Credibility(domain.AuthorProfile{})
	assert.Equal(t, 15.0, unverified) // baseline only

	verified := Credibility(domain.AuthorProfile{IsVerifiedAuthor: true})
	assert.Greater(t, verified, unverified)

	prolific := Credibility(domain.AuthorProfile{IsVerifiedAuthor: true, AuthorReviewCount: 30})
	assert.Greater(t, prolific, verified)
	assert.LessOrEqual(t, prolific, 100.0)
}

func TestCredibility_ExtremeAverageDoesNotPenalize(t *testing.T) {
	mid := Credibility(domain.AuthorProfile{AuthorReviewCount: 10, AuthorAverageRating: 3.0})
	low := Credibility(domain.AuthorProfile{AuthorReviewCount: 10, AuthorAverageRating: 1.0})
	high := Credibility(domain.AuthorProfile{AuthorReviewCount: 10, AuthorAverageRating: 5.0})

	assert.Equal(t, mid, low)
	assert.Equal(t, mid, high)
}

func TestQuality_WeightsAndClamping(t *testing.T) {
	assert.Equal(t, 100.0, Quality(100, 100, 100, 100))
	assert.Equal(t, 0.0, Quality(0, 0, 0, 0))

	// Out-of-range inputs are clamped before blending.
	assert.Equal(t, 100.0, Quality(500, 200, 150, 300))
	assert.Equal(t, 0.0, Quality(-50, -1, -100, -3))

	// Weight check: only the detail input set.
	assert.InDelta(t, 30.0, Quality(0, 100, 0, 0), 1e-9)
	assert.InDelta(t, 20.0, Quality(100, 0, 0, 0), 1e-9)
}

func TestQualityLevel(t *testing.T) {
	assert.Equal(t, domain.QualityExcellent, QualityLevel(80))
	assert.Equal(t, domain.QualityGood, QualityLevel(79.9))
	assert.Equal(t, domain.QualityFair, QualityLevel(40))
	assert.Equal(t, domain.QualityPoor, QualityLevel(20))
	assert.Equal(t, domain.QualityVeryPoor, QualityLevel(19.9))
}

func TestLengthScore(t *testing.T) {
	assert.Equal(t, 0.0, LengthScore(strings.Repeat("a", 50)))
	assert.Equal(t, 100.0, LengthScore(strings.Repeat("a", 500)))

	mid := LengthScore(strings.Repeat("a", 275))
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, 100.0)
}

func TestObjectivityScore(t *testing.T) {
	calm := ObjectivityScore("The management was supportive and the pay arrived on time.")
	shouty := ObjectivityScore("WORST COMPANY EVER!!! DO NOT WORK HERE!!!")
	assert.Greater(t, calm, shouty)
	assert.GreaterOrEqual(t, shouty, 0.0)
}

func TestDetailScore(t *testing.T) {
	sparse := DetailScore("bad place")
	rich := DetailScore("The onboarding took two weeks and covered every internal tool. " +
		"Management explained the promotion process clearly. Salary reviews happen twice a year. " +
		"The office has quiet rooms. Remote work is allowed three days a week.")
	assert.Greater(t, rich, sparse)
	assert.LessOrEqual(t, rich, 100.0)
}
