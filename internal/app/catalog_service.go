package app

import (
	"context"
	"log"
	"strings"

	"explainit-service/internal/domain"
)

// VideoLibrary lists the posted media filenames.
type VideoLibrary interface {
	ListVideos(ctx context.Context) ([]string, error)
}

// CharacterCatalog returns the generator's character catalog.
type CharacterCatalog interface {
	Characters(ctx context.Context) (map[string]domain.CharacterInfo, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, videoID string) (domain.QuizDocument, error)
}

// CatalogService serves the read side of the feed: listing, quizzes, characters.
type CatalogService struct {
	library    VideoLibrary
	quizzes    QuizRepository
	characters CharacterCatalog
}

func NewCatalogService(library VideoLibrary, quizzes QuizRepository, characters CharacterCatalog) *CatalogService {
	return &CatalogService{library: library, quizzes: quizzes, characters: characters}
}

// Videos returns the sorted media filenames.
func (s *CatalogService) Videos(ctx context.Context) ([]string, error) {
	return s.library.ListVideos(ctx)
}

// Quiz returns the quiz for a video id. The id may carry the media
// extension. Malformed questions are stripped; a quiz left empty is reported
// as missing so availability flags stay truthful.
func (s *CatalogService) Quiz(ctx context.Context, videoID string) (domain.QuizDocument, error) {
	id := domain.NormalizeVideoID(videoID)
	if !validQuizID(id) {
		return domain.QuizDocument{}, domain.ErrQuizNotFound
	}
	doc, err := s.quizzes.GetQuiz(ctx, id)
	if err != nil {
		return domain.QuizDocument{}, err
	}
	clean := doc.Sanitized()
	if dropped := len(doc.Questions) - len(clean.Questions); dropped > 0 {
		log.Printf("quiz %s: dropped %d malformed questions", id, dropped)
	}
	if len(clean.Questions) == 0 {
		return domain.QuizDocument{}, domain.ErrQuizNotFound
	}
	return clean, nil
}

// Characters returns the character catalog.
func (s *CatalogService) Characters(ctx context.Context) (map[string]domain.CharacterInfo, error) {
	return s.characters.Characters(ctx)
}

func validQuizID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
