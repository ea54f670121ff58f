package state

import "explainit-service/internal/domain"

// SampleVideos is the bundled feed shown before (or instead of) the backend
// listing. The cards have no media, so playback runs on the synthetic timer.
func SampleVideos() []domain.VideoCard {
	return []domain.VideoCard{
		{
			ID:           "sample-photosynthesis",
			Title:        "How Plants Eat Sunlight",
			Explanation:  "Photosynthesis turns light, water and CO2 into sugar and oxygen.",
			Character:    domain.Character{Name: "Professor Leaf", Avatar: "🌿", Color: "#22C55E"},
			ThumbnailURL: "/thumbnails/photosynthesis.jpg",
			Category:     "Science",
			Likes:        1240,
			Views:        15800,
			Shares:       87,
			Duration:     "0:45",
			Quiz: []domain.QuizQuestion{
				{
					Question:      "What gas do plants release during photosynthesis?",
					Options:       []string{"Carbon dioxide", "Oxygen", "Nitrogen", "Hydrogen"},
					CorrectAnswer: 1,
					Explanation:   "Water is split and oxygen is released as a by-product.",
				},
				{
					Question:      "Where in the cell does photosynthesis happen?",
					Options:       []string{"Mitochondria", "Nucleus", "Chloroplast"},
					CorrectAnswer: 2,
					Explanation:   "Chloroplasts hold the chlorophyll that captures light.",
				},
			},
		},
		{
			ID:           "sample-black-holes",
			Title:        "Black Holes in 60 Seconds",
			Explanation:  "Gravity so strong that not even light escapes past the event horizon.",
			Character:    domain.Character{Name: "Captain Cosmos", Avatar: "🚀", Color: "#3B82F6"},
			ThumbnailURL: "/thumbnails/black-holes.jpg",
			ShowTheme: &domain.ShowTheme{
				Name:       "Space Cadets",
				Avatar:     "🪐",
				Color:      "#1E3A8A",
				Characters: []string{"Captain Cosmos", "Robo"},
			},
			Category: "Space",
			Likes:    3420,
			Views:    48210,
			Shares:   302,
			Duration: "1:00",
			Quiz: []domain.QuizQuestion{
				{
					Question:      "What is the boundary of a black hole called?",
					Options:       []string{"Event horizon", "Photon sphere", "Accretion disk"},
					CorrectAnswer: 0,
					Explanation:   "Past the event horizon nothing can escape.",
				},
			},
		},
		{
			ID:           "sample-compound-interest",
			Title:        "Why Compound Interest Is Magic",
			Explanation:  "Interest earning interest makes money grow exponentially.",
			Character:    domain.Character{Name: "Penny", Avatar: "💰", Color: "#F59E0B"},
			ThumbnailURL: "/thumbnails/compound-interest.jpg",
			Category:     "Finance",
			Likes:        890,
			Views:        9100,
			Shares:       41,
			Duration:     "0:30",
		},
	}
}
