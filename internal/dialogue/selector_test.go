package dialogue

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/healthcoach/internal/domain"
)

func TestSelectPrompt(t *testing.T) {
	tests := []struct {
		name    string
		profile domain.LearnerProfile
		want    string
	}{
		{
			name:    "slides and video completed offers simulation",
			profile: domain.LearnerProfile{FirstName: "Ava", SlidesCompleted: true, VideoWatched: true, VideoProgress: 10},
			want:    "Hello Ava, you have completed the slides and the video. Would you like to proceed to the simulation?",
		},
		{
			name:    "slides completed asks for examination steps",
			profile: domain.LearnerProfile{FirstName: "Ava", SlidesCompleted: true, VideoProgress: 60},
			want:    "Hello Ava, you have completed the slides. Tell me the steps to perform breast self-examination.",
		},
		{
			name:    "video watched asks for questions",
			profile: domain.LearnerProfile{FirstName: "Ava", VideoWatched: true},
			want:    "Hello Ava, you have completed the video. Do you have any questions regarding breast self-examination?",
		},
		{
			name:    "partial video reports percentage",
			profile: domain.LearnerProfile{FirstName: "Ava", VideoProgress: 60},
			want:    "Hello Ava, you have watched 60% of the video. Would you like to continue learning or ask any questions?",
		},
		{
			name:    "no progress offers to start",
			profile: domain.LearnerProfile{FirstName: "Ava"},
			want:    "Hello Ava, would you like to start learning about breast self-examination?",
		},
		{
			name:    "missing name uses default",
			profile: domain.LearnerProfile{},
			want:    "Hello User, would you like to start learning about breast self-examination?",
		},
		{
			name:    "blank name uses default",
			profile: domain.LearnerProfile{FirstName: "   ", VideoWatched: true},
			want:    "Hello User, you have completed the video. Do you have any questions regarding breast self-examination?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectPrompt(tt.profile))
		})
	}
}

func TestSelectPrompt_SimulationIgnoresProgress(t *testing.T) {
	for p := 0; p <= 100; p += 5 {
		got := SelectPrompt(domain.LearnerProfile{FirstName: "Ava", SlidesCompleted: true, VideoWatched: true, VideoProgress: p})
		assert.Contains(t, got, "proceed to the simulation", "progress %d", p)
	}
}

func TestSelectPrompt_ProgressIsEmbedded(t *testing.T) {
	for p := 1; p <= 100; p++ {
		got := SelectPrompt(domain.LearnerProfile{FirstName: "Ava", VideoProgress: p})
		assert.True(t, strings.Contains(got, fmt.Sprintf("watched %d%% of the video", p)), "got %q", got)
	}
}

func TestSelectPrompt_FromDecodedProfile(t *testing.T) {
	var p domain.LearnerProfile
	require.NoError(t, json.Unmarshal([]byte(`{"fname":"Ava","slidesCompleted":true,"videoWatched":false,"videoProgress":60}`), &p))
	assert.Equal(t, "Hello Ava, you have completed the slides. Tell me the steps to perform breast self-examination.", SelectPrompt(p))

	var sparse domain.LearnerProfile
	require.NoError(t, json.Unmarshal([]byte(`{"email":"ava@example.com"}`), &sparse))
	assert.Equal(t, "Hello User, would you like to start learning about breast self-examination?", SelectPrompt(sparse))
}
