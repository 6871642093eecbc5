package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/common"
)

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		config common.SMTPConfig
		want   bool
	}{
		{"empty", common.SMTPConfig{}, false},
		{"host only", common.SMTPConfig{Host: "smtp.example.com"}, false},
		{"from only", common.SMTPConfig{From: "noreply@example.com"}, false},
		{"host and from", common.SMTPConfig{Host: "smtp.example.com", From: "noreply@example.com"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&tt.config, arbor.NewLogger())
			assert.Equal(t, tt.want, svc.IsConfigured())
		})
	}
}

func TestSend_UnconfiguredFails(t *testing.T) {
	svc := NewService(&common.SMTPConfig{}, arbor.NewLogger())
	err := svc.Send(context.Background(), "user@example.com", "subject", "body")
	assert.Error(t, err)
}
