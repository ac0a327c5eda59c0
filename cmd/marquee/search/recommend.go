package searchcmder

import "github.com/spf13/cobra"

const recommendEndpoint = "/v1/recommend"

const recommendLongDesc string = `Recommend movies from the index for a mood or premise.

Takes the same flags as "marquee search" and ranks catalog movies the same
way, phrased for recommendations.

Examples:
  marquee recommend "something cozy for a rainy night"
  marquee recommend "slow burn sci-fi" --top 3 --remote`

const recommendShortDesc string = "Recommend movies from the index"

func NewRecommendCmd() *cobra.Command {
	return newQueryCmd("recommend <text>", recommendShortDesc, recommendLongDesc, recommendEndpoint)
}
