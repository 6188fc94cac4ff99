package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/proctorhq/examgate-backend/internal/config"
	"github.com/proctorhq/examgate-backend/internal/database"
	"github.com/proctorhq/examgate-backend/internal/logger"
	"github.com/proctorhq/examgate-backend/internal/model"
	"github.com/proctorhq/examgate-backend/internal/repository"
)

// seedExam pairs an exam definition with its question bank.
type seedExam struct {
	exam      model.Exam
	questions []seedQuestion
}

type seedQuestion struct {
	text    string
	options []option
	correct string
}

type option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	Value string `json:"value"`
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	fmt.Println("=== Seeding Exams ===")

	for _, seed := range seedData() {
		exam := seed.exam
		if err := examRepo.Create(ctx, &exam); err != nil {
			log.Fatal().Err(err).Str("title", exam.Title).Msg("Failed to create exam")
		}

		for i, sq := range seed.questions {
			opts, err := json.Marshal(sq.options)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to marshal options")
			}
			q := model.Question{
				ExamID:        exam.ID,
				Text:          sq.text,
				Options:       opts,
				CorrectAnswer: sq.correct,
				OrderNum:      i + 1,
			}
			if err := questionRepo.Create(ctx, &q); err != nil {
				log.Fatal().Err(err).Str("exam", exam.Title).Msg("Failed to create question")
			}
		}

		fmt.Printf("Created exam %q (%s) with %d questions\n", exam.Title, exam.ID, len(seed.questions))
	}

	fmt.Println("Done")
}

func seedData() []seedExam {
	abcd := func(a, b, c, d string) []option {
		return []option{
			{Label: "A", Text: a, Value: "a"},
			{Label: "B", Text: b, Value: "b"},
			{Label: "C", Text: c, Value: "c"},
			{Label: "D", Text: d, Value: "d"},
		}
	}

	return []seedExam{
		{
			exam: model.Exam{
				Title:           "Networking Fundamentals",
				Description:     "TCP/IP, routing, and common protocols.",
				DurationMinutes: 30,
				QuestionCount:   3,
				Difficulty:      model.DifficultyBeginner,
				Tags:            json.RawMessage(`["networking","basics"]`),
				IsActive:        true,
			},
			questions: []seedQuestion{
				{
					text:    "Which protocol provides reliable, ordered delivery?",
					options: abcd("UDP", "TCP", "ICMP", "ARP"),
					correct: "b",
				},
				{
					text:    "What is the default HTTPS port?",
					options: abcd("80", "8080", "443", "22"),
					correct: "c",
				},
				{
					text:    "Which device forwards packets between networks?",
					options: abcd("Hub", "Switch", "Repeater", "Router"),
					correct: "d",
				},
				{
					text:    "What does DNS resolve?",
					options: abcd("MAC addresses", "Hostnames to IP addresses", "Port numbers", "Routing tables"),
					correct: "b",
				},
			},
		},
		{
			exam: model.Exam{
				Title:           "SQL Essentials",
				Description:     "Queries, joins, and transactions.",
				DurationMinutes: 45,
				QuestionCount:   3,
				Difficulty:      model.DifficultyIntermediate,
				Tags:            json.RawMessage(`["sql","databases"]`),
				IsActive:        true,
			},
			questions: []seedQuestion{
				{
					text:    "Which clause filters rows after aggregation?",
					options: abcd("WHERE", "HAVING", "GROUP BY", "ORDER BY"),
					correct: "b",
				},
				{
					text:    "Which join keeps unmatched rows from the left table?",
					options: abcd("INNER JOIN", "CROSS JOIN", "LEFT JOIN", "FULL JOIN"),
					correct: "c",
				},
				{
					text:    "Which statement makes a transaction's changes permanent?",
					options: abcd("SAVEPOINT", "ROLLBACK", "BEGIN", "COMMIT"),
					correct: "d",
				},
			},
		},
	}
}
