package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/welfare-interviewer/internal/ai"
	"github.com/spigell/welfare-interviewer/internal/profile"
	"github.com/spigell/welfare-interviewer/internal/programs"
	"github.com/spigell/welfare-interviewer/internal/utils"
)

const (
	defaultMaxLogLength = 200

	collaboratorPhraser           = "phraser"
	collaboratorInterpreter       = "interpreter"
	collaboratorShortlister       = "shortlister"
	collaboratorConversationalist = "conversationalist"
)

var (
	//go:embed prompts/system.md
	systemPrompt string
	//go:embed prompts/question.md
	questionTemplate string
	//go:embed prompts/open_question.md
	openQuestionTemplate string
	//go:embed prompts/interpret.md
	interpretTemplate string
	//go:embed prompts/shortlist.md
	shortlistTemplate string
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// Assistant implements the interview collaborators on top of a Gemini
// generator.
type Assistant struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var (
	_ ai.QuestionPhraser   = (*Assistant)(nil)
	_ ai.AnswerInterpreter = (*Assistant)(nil)
	_ ai.Shortlister       = (*Assistant)(nil)
	_ ai.Conversationalist = (*Assistant)(nil)
)

func NewAssistant(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Assistant {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Assistant{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Collaborators exposes the assistant as every interview collaborator.
func (a *Assistant) Collaborators() ai.Collaborators {
	return ai.Collaborators{
		Phraser:           a,
		Interpreter:       a,
		Shortlister:       a,
		Conversationalist: a,
	}
}

// PhraseQuestion asks the model for a question about a dataset field.
func (a *Assistant) PhraseQuestion(ctx context.Context, field string) (string, error) {
	meaning := field
	if attr, ok := programs.AttributeOf(field); ok {
		meaning = attr.Description()
	}

	prompt := render(questionTemplate, map[string]string{
		"FIELD":   field,
		"MEANING": meaning,
	})

	raw, err := a.generate(ctx, collaboratorPhraser, prompt)
	if err != nil {
		return "", err
	}

	return questionFrom(collaboratorPhraser, raw)
}

// OpenQuestion asks the model for the next open-ended question.
func (a *Assistant) OpenQuestion(ctx context.Context, transcript ai.Transcript) (string, error) {
	prompt := render(openQuestionTemplate, map[string]string{
		"TRANSCRIPT": renderTranscript(transcript),
	})

	raw, err := a.generate(ctx, collaboratorConversationalist, prompt)
	if err != nil {
		return "", err
	}

	return questionFrom(collaboratorConversationalist, raw)
}

// Interpret maps the transcript onto profile attributes. Keys the model
// invents and values that cannot be coerced are dropped.
func (a *Assistant) Interpret(ctx context.Context, transcript ai.Transcript) (profile.Profile, error) {
	if len(transcript) == 0 {
		return profile.Profile{}, nil
	}

	prompt := render(interpretTemplate, map[string]string{
		"FIELDS":     renderFields(),
		"TRANSCRIPT": renderTranscript(transcript),
	})

	raw, err := a.generate(ctx, collaboratorInterpreter, prompt)
	if err != nil {
		return profile.Profile{}, err
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return profile.Profile{}, &ai.MalformedResponseError{Collaborator: collaboratorInterpreter, Raw: raw, Err: err}
	}

	var update profile.Profile
	for key, value := range data {
		field, ok := profile.ParseField(key)
		if !ok {
			a.logger.Debug("ignoring unknown interpreted field", zap.String("field", key))
			continue
		}
		if value == nil {
			continue
		}
		if err := update.Set(field, value); err != nil {
			a.logger.Debug("ignoring unresolvable interpreted value",
				zap.String("field", key),
				zap.Any("value", value),
				zap.Error(err),
			)
		}
	}

	return update, nil
}

type shortlistResponse struct {
	Programs []string `mapstructure:"programs"`
	Reason   string   `mapstructure:"reason"`
}

// Shortlist asks the model which catalogue programs fit the conversation.
// Names are returned as the model wrote them; resolving them against the
// catalogue is up to the caller.
func (a *Assistant) Shortlist(ctx context.Context, transcript ai.Transcript, catalogue []programs.Program) ([]string, error) {
	prompt := render(shortlistTemplate, map[string]string{
		"CATALOGUE":  renderCatalogue(catalogue),
		"TRANSCRIPT": renderTranscript(transcript),
	})

	raw, err := a.generate(ctx, collaboratorShortlister, prompt)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, &ai.MalformedResponseError{Collaborator: collaboratorShortlister, Raw: raw, Err: err}
	}

	var resp shortlistResponse
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &resp,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: build decoder: %w", collaboratorShortlister, err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, &ai.MalformedResponseError{Collaborator: collaboratorShortlister, Raw: raw, Err: err}
	}

	names := make([]string, 0, len(resp.Programs))
	for _, name := range resp.Programs {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, &ai.MalformedResponseError{Collaborator: collaboratorShortlister, Raw: raw, Err: ai.ErrNoAnswer}
	}

	a.logger.Debug("shortlist generated",
		zap.Strings("programs", names),
		zap.String("reason", resp.Reason),
	)

	return names, nil
}

func (a *Assistant) generate(ctx context.Context, collaborator, prompt string) (string, error) {
	a.logger.Debug("gemini generate content request",
		zap.String("collaborator", collaborator),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", collaborator, err)
	}

	a.logger.Debug("gemini generate content response",
		zap.String("collaborator", collaborator),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	return raw, nil
}

func questionFrom(collaborator, raw string) (string, error) {
	question := cleanQuestion(raw)
	if question == "" {
		return "", &ai.MalformedResponseError{Collaborator: collaborator, Raw: raw, Err: ai.ErrNoAnswer}
	}
	if utf8.RuneCountInString(question) > maxQuestionRunes {
		return "", &ai.MalformedResponseError{Collaborator: collaborator, Raw: raw, Err: fmt.Errorf("question longer than %d characters", maxQuestionRunes)}
	}
	return question, nil
}

func render(template string, values map[string]string) string {
	out := template
	for key, value := range values {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}

func renderTranscript(transcript ai.Transcript) string {
	if len(transcript) == 0 {
		return "(no conversation yet)"
	}

	safe := make(ai.Transcript, 0, len(transcript))
	for _, e := range transcript {
		safe = append(safe, ai.Exchange{
			Field:    e.Field,
			Question: sanitizeInline(e.Question),
			Answer:   sanitizeInline(e.Answer),
		})
	}
	return strings.TrimSpace(safe.String())
}

func renderFields() string {
	var b strings.Builder
	for _, f := range profile.Fields() {
		kind := "true/false"
		if f.Kind() == profile.KindInt {
			kind = "integer"
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", f, kind, f.Description())
	}
	return strings.TrimSpace(b.String())
}

func renderCatalogue(catalogue []programs.Program) string {
	var b strings.Builder
	for _, p := range catalogue {
		if p.Description == "" {
			fmt.Fprintf(&b, "- %s\n", p.ID)
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", p.ID, sanitizeInline(p.Description))
	}
	return strings.TrimSpace(b.String())
}
