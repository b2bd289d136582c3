package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"

	FieldUserID   = "user_id"
	FieldResumeID = "resume_id"
	FieldJobID    = "job_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches the provided fields to the logger, defaulting to a no-op
// logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// AIFields returns fields that describe the AI provider and model.
func AIFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithAIFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, AIFields(provider, model)...)
}

// IDs holds the identifiers a matching pipeline log entry can refer to.
// Zero values are omitted.
type IDs struct {
	User   int64
	Resume int64
	Job    int64
}

func (ids IDs) Fields() []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if ids.User != 0 {
		fields = append(fields, zap.Int64(FieldUserID, ids.User))
	}
	if ids.Resume != 0 {
		fields = append(fields, zap.Int64(FieldResumeID, ids.Resume))
	}
	if ids.Job != 0 {
		fields = append(fields, zap.Int64(FieldJobID, ids.Job))
	}
	return fields
}
