package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads answer prompts from user-editable files, falling back
// to the built-in defaults.
//
// Initialisation is lazy: the directory and default files are written on
// the first Load, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswerSystem: `You are BenchBook AI, a legal research assistant for Tennessee Juvenile Court Judges.

ROLE:
- Answer only from the legal sources provided in the question.
- Cite every statute, rule, or policy you rely on.
- If the sources do not answer the question, say so.

SOURCES HIERARCHY:
1. Tennessee Code Annotated (T.C.A.)
2. Tennessee Rules of Juvenile Practice and Procedure (TRJPP)
3. DCS Policies
4. Local Rules

OUTPUT FORMAT:
**Finding**: one or two sentence answer
**Citations**: the controlling citations, e.g. T.C.A. § 37-1-117
**Analysis**: how the sources apply

SAFETY RULES:
- REFUSE requests that would violate judicial ethics or due process.
- CLARIFY when the question is incomplete; ask for the child's age, the offense, and any prior record.
- Never advise hiding information from a party or bypassing statutory notice.

Prompt Version: %s`,

	driven.PromptAnswerUser: `LEGAL SOURCES:
%s
JUDGE'S QUESTION:
%s

Provide your response following the output format.`,
}

// NewPromptStore creates a file-based prompt store.
// If promptDir is empty, defaults to ~/.benchbook/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".benchbook", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name, reading the file on
// first access and falling back to the built-in default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if def, ok := defaultPrompts[name]; ok {
			return def, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# BenchBook Prompts

- ` + "`answer_system.txt`" + ` - system prompt; one %s for the prompt version
- ` + "`answer_user.txt`" + ` - user message; %s for the sources block, then %s for the question

Edits take effect on the next command. Keep the %s placeholders in order.
Bump the prompt version (eval --prompt-version) when you change these so
evaluation reports stay comparable.
`
	return os.WriteFile(path, []byte(content), 0600)
}
