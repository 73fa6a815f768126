package app

import "edu-quiz-service/internal/domain"

// DefaultSeed is the sample content written on first start.
func DefaultSeed() Seed {
	return Seed{
		Subjects: []domain.Subject{
			{ID: "math", Name: "Math"},
			{ID: "geography", Name: "Geography"},
		},
		Levels: []domain.Level{
			{ID: "math-basic", Name: "Basic", SubjectID: "math"},
			{ID: "geography-basic", Name: "Basic", SubjectID: "geography"},
		},
		Topics: []domain.Topic{
			{ID: "math-basic-arithmetic", Name: "Arithmetic", SubjectID: "math", LevelID: "math-basic"},
			{ID: "geography-basic-capitals", Name: "Capitals", SubjectID: "geography", LevelID: "geography-basic"},
		},
		Questions: []domain.Question{
			{
				ID: "math-basic-arithmetic-1", SubjectID: "math", LevelID: "math-basic", TopicID: "math-basic-arithmetic",
				Text:          "What is 2 + 2?",
				Options:       []string{"3", "4", "5", "22"},
				CorrectAnswer: "4",
			},
			{
				ID: "math-basic-arithmetic-2", SubjectID: "math", LevelID: "math-basic", TopicID: "math-basic-arithmetic",
				Text:          "What is 15 multiplied by 4?",
				Options:       []string{"50", "60", "70", "80"},
				CorrectAnswer: "60",
			},
			{
				ID: "math-basic-arithmetic-3", SubjectID: "math", LevelID: "math-basic", TopicID: "math-basic-arithmetic",
				Text:          "What is 100 minus 37?",
				Options:       []string{"61", "63", "65", "67"},
				CorrectAnswer: "63",
			},
			{
				ID: "geography-basic-capitals-1", SubjectID: "geography", LevelID: "geography-basic", TopicID: "geography-basic-capitals",
				Text:          "What is the capital of France?",
				Options:       []string{"Berlin", "Paris", "Madrid", "Rome"},
				CorrectAnswer: "Paris",
			},
			{
				ID: "geography-basic-capitals-2", SubjectID: "geography", LevelID: "geography-basic", TopicID: "geography-basic-capitals",
				Text:          "What is the capital of Japan?",
				Options:       []string{"Seoul", "Beijing", "Tokyo", "Bangkok"},
				CorrectAnswer: "Tokyo",
			},
		},
	}
}
