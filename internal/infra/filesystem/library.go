package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"explainit-service/internal/domain"
)

// VideoLibrary lists the generator's posted videos.
type VideoLibrary struct {
	dir string
}

// NewVideoLibrary ensures dir exists so a fresh install lists nothing instead of failing.
func NewVideoLibrary(dir string) (*VideoLibrary, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create posted dir: %w", err)
	}
	return &VideoLibrary{dir: dir}, nil
}

// Dir is the directory served under the media URL prefix.
func (l *VideoLibrary) Dir() string {
	return l.dir
}

// ListVideos returns the sorted names of servable video files.
func (l *VideoLibrary) ListVideos(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !domain.IsVideoFile(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// CharacterCatalog reads characters.json on every call so edits show up without a restart.
type CharacterCatalog struct {
	path string
}

func NewCharacterCatalog(path string) *CharacterCatalog {
	return &CharacterCatalog{path: path}
}

func (c *CharacterCatalog) Characters(_ context.Context) (map[string]domain.CharacterInfo, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read characters: %w", err)
	}
	characters := make(map[string]domain.CharacterInfo)
	if err := json.Unmarshal(data, &characters); err != nil {
		return nil, fmt.Errorf("decode characters: %w", err)
	}
	return characters, nil
}

// QuizLoader reads {dir}/{videoID}.json files written by the generator.
type QuizLoader struct {
	dir string
}

func NewQuizLoader(dir string) *QuizLoader {
	return &QuizLoader{dir: dir}
}

func (l *QuizLoader) LoadQuiz(_ context.Context, videoID string) (domain.QuizDocument, error) {
	if videoID == "" || filepath.Base(videoID) != videoID {
		return domain.QuizDocument{}, domain.ErrQuizNotFound
	}
	data, err := os.ReadFile(filepath.Join(l.dir, videoID+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return domain.QuizDocument{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizDocument{}, fmt.Errorf("read quiz: %w", err)
	}
	var quiz domain.QuizDocument
	if err := json.Unmarshal(data, &quiz); err != nil {
		return domain.QuizDocument{}, fmt.Errorf("unmarshal quiz %s: %w", videoID, err)
	}
	return quiz, nil
}

// ListQuizIDs returns the ids of every quiz file, used when importing into Postgres.
func (l *QuizLoader) ListQuizIDs(_ context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
