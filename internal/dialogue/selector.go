// Package dialogue picks the opening prompt for a learner from their course
// progress.
package dialogue

import (
	"fmt"

	"github.com/ashureev/healthcoach/internal/domain"
)

// SelectPrompt returns the greeting for the learner's current stage. The
// branches are checked in order and the first match wins.
func SelectPrompt(p domain.LearnerProfile) string {
	name := p.DisplayName()

	switch {
	case p.SlidesCompleted && p.VideoWatched:
		return fmt.Sprintf("Hello %s, you have completed the slides and the video. Would you like to proceed to the simulation?", name)
	case p.SlidesCompleted:
		return fmt.Sprintf("Hello %s, you have completed the slides. Tell me the steps to perform breast self-examination.", name)
	case p.VideoWatched:
		return fmt.Sprintf("Hello %s, you have completed the video. Do you have any questions regarding breast self-examination?", name)
	case p.VideoProgress > 0:
		return fmt.Sprintf("Hello %s, you have watched %d%% of the video. Would you like to continue learning or ask any questions?", name, p.VideoProgress)
	default:
		return fmt.Sprintf("Hello %s, would you like to start learning about breast self-examination?", name)
	}
}
