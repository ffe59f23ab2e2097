package httptransport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mailcapture/backend/internal/domain"
)

func TestRenderNeutralizesMarkup(t *testing.T) {
	r := NewRenderer()

	rendered := r.Render(domain.ErrorFeedback(`<script>alert(1)</script>Server says no`))

	assert.NotContains(t, rendered.Message, "<")
	assert.NotContains(t, rendered.Message, ">")
	assert.Contains(t, rendered.Message, "Server says no")
	assert.Equal(t, domain.FeedbackError, rendered.Kind)
}

func TestRenderPreservesPlainText(t *testing.T) {
	r := NewRenderer()

	rendered := r.Render(domain.SuccessFeedback("Submitted!"))

	assert.Equal(t, "Submitted!", rendered.Message)
	assert.Equal(t, domain.FeedbackSuccess, rendered.Kind)
}

func TestRenderDoesNotMutateInput(t *testing.T) {
	r := NewRenderer()

	original := domain.ErrorFeedback("<b>bold</b>")
	_ = r.Render(original)

	assert.Equal(t, "<b>bold</b>", original.Message)
}

func TestRenderNil(t *testing.T) {
	r := NewRenderer()
	assert.Nil(t, r.Render(nil))
}
