package exercise

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/grading"
	"gopkg.in/yaml.v3"
)

//go:embed curriculum/*.yaml
var embedded embed.FS

// indexFile is the name of the file listing chapters in order
const indexFile = "curriculum.yaml"

// IndexFile represents the YAML structure listing a curriculum's chapters
type IndexFile struct {
	Name     string   `yaml:"name"`
	Version  string   `yaml:"version"`
	Chapters []string `yaml:"chapters"`
}

// ChapterFile represents the YAML structure for a chapter and its exercises
type ChapterFile struct {
	ID          string         `yaml:"id"`
	Number      int            `yaml:"number"`
	Title       string         `yaml:"title"`
	Subtitle    string         `yaml:"subtitle"`
	Description string         `yaml:"description"`
	Difficulty  string         `yaml:"difficulty"`
	XPBonus     int            `yaml:"xp_bonus"`
	Lesson      string         `yaml:"lesson"`
	Exercises   []ExerciseFile `yaml:"exercises"`
}

// ExerciseFile represents the YAML structure for an exercise
type ExerciseFile struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Instruction string `yaml:"instruction"`
	Initial     struct {
		Prompt  string `yaml:"prompt"`
		System  string `yaml:"system"`
		Prefill string `yaml:"prefill"`
	} `yaml:"initial"`
	Hint    string `yaml:"hint"`
	Grading struct {
		Description string       `yaml:"description"`
		Rule        grading.Rule `yaml:"rule"`
	} `yaml:"grading"`
	XPReward        int               `yaml:"xp_reward"`
	HasSystemPrompt bool              `yaml:"has_system_prompt"`
	HasPrefill      bool              `yaml:"has_prefill"`
	TestInputs      map[string]string `yaml:"test_inputs"`
}

// Loader reads a curriculum from a filesystem
type Loader struct {
	fsys fs.FS
}

// NewLoader creates a loader over the built-in curriculum
func NewLoader() *Loader {
	sub, err := fs.Sub(embedded, "curriculum")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return &Loader{fsys: sub}
}

// NewDirLoader creates a loader over a curriculum directory on disk
func NewDirLoader(dir string) *Loader {
	return &Loader{fsys: os.DirFS(dir)}
}

// NewLoaderFrom returns a loader over the first directory that holds a
// curriculum index, or over the built-in curriculum when none does. The
// second result is the chosen directory, empty for the built-in one.
func NewLoaderFrom(dirs ...string) (*Loader, string) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, indexFile)); err == nil {
			return NewDirLoader(dir), dir
		}
	}
	return NewLoader(), ""
}

// NewFSLoader creates a loader over an arbitrary filesystem
func NewFSLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// LoadIndex reads the chapter index
func (l *Loader) LoadIndex() (*IndexFile, error) {
	data, err := fs.ReadFile(l.fsys, indexFile)
	if err != nil {
		return nil, fmt.Errorf("read index file: %w", err)
	}

	var index IndexFile
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse index file: %w", err)
	}
	if len(index.Chapters) == 0 {
		return nil, fmt.Errorf("index file lists no chapters")
	}
	return &index, nil
}

// LoadChapter reads and validates a single chapter file
func (l *Loader) LoadChapter(name string) (*domain.Chapter, error) {
	if path.Ext(name) == "" {
		name += ".yaml"
	}

	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read chapter file: %w", err)
	}

	var chFile ChapterFile
	if err := yaml.Unmarshal(data, &chFile); err != nil {
		return nil, fmt.Errorf("parse chapter file %s: %w", name, err)
	}
	if chFile.ID == "" {
		return nil, fmt.Errorf("chapter file %s: missing id", name)
	}

	chapter := &domain.Chapter{
		ID:            chFile.ID,
		Number:        chFile.Number,
		Title:         chFile.Title,
		Subtitle:      chFile.Subtitle,
		Description:   chFile.Description,
		Difficulty:    domain.Difficulty(chFile.Difficulty),
		XPBonus:       chFile.XPBonus,
		LessonContent: strings.TrimSpace(chFile.Lesson),
		Exercises:     make([]domain.Exercise, 0, len(chFile.Exercises)),
	}

	for _, exFile := range chFile.Exercises {
		if exFile.ID == "" {
			return nil, fmt.Errorf("chapter %s: exercise missing id", chFile.ID)
		}
		if err := grading.Validate(exFile.Grading.Rule); err != nil {
			return nil, fmt.Errorf("exercise %s: %w", exFile.ID, err)
		}
		if exFile.XPReward < 0 {
			return nil, fmt.Errorf("exercise %s: negative xp_reward", exFile.ID)
		}

		chapter.Exercises = append(chapter.Exercises, domain.Exercise{
			ID:                  exFile.ID,
			ChapterID:           chFile.ID,
			Title:               exFile.Title,
			Description:         exFile.Description,
			Instruction:         strings.TrimSpace(exFile.Instruction),
			InitialPrompt:       strings.TrimSuffix(exFile.Initial.Prompt, "\n"),
			InitialSystemPrompt: strings.TrimSuffix(exFile.Initial.System, "\n"),
			InitialPrefill:      strings.TrimSuffix(exFile.Initial.Prefill, "\n"),
			Hint:                strings.TrimSpace(exFile.Hint),
			Rule:                exFile.Grading.Rule,
			GradingDescription:  exFile.Grading.Description,
			XPReward:            exFile.XPReward,
			HasSystemPrompt:     exFile.HasSystemPrompt,
			HasPrefill:          exFile.HasPrefill,
			TestInputs:          trimValues(exFile.TestInputs),
		})
	}

	return chapter, nil
}

// LoadAll loads every chapter listed in the index, in order
func (l *Loader) LoadAll() ([]domain.Chapter, error) {
	index, err := l.LoadIndex()
	if err != nil {
		return nil, err
	}

	chapters := make([]domain.Chapter, 0, len(index.Chapters))
	for _, name := range index.Chapters {
		ch, err := l.LoadChapter(name)
		if err != nil {
			return nil, fmt.Errorf("load chapter %s: %w", name, err)
		}
		chapters = append(chapters, *ch)
	}

	return chapters, nil
}

// trimValues drops the trailing newline YAML block scalars add.
func trimValues(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = strings.TrimSuffix(v, "\n")
	}
	return out
}
