package handler

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

// EditFieldRequestSuite tests EditFieldRequest validation and value parsing.
type EditFieldRequestSuite struct {
	suite.Suite
}

func TestEditFieldRequestSuite(t *testing.T) {
	suite.Run(t, new(EditFieldRequestSuite))
}

// TestValidation verifies value presence, size, and JSON type handling.
func (s *EditFieldRequestSuite) TestValidation() {
	s.Run("string value passes", func() {
		req := &EditFieldRequest{Value: json.RawMessage(`"Bistro Verde GmbH"`)}
		err := req.Validate()
		s.Require().NoError(err)
		s.Equal("Bistro Verde GmbH", req.ParsedValue())
	})

	s.Run("numeric value passes", func() {
		req := &EditFieldRequest{Value: json.RawMessage(`42.5`)}
		err := req.Validate()
		s.Require().NoError(err)
		s.Equal(42.5, req.ParsedValue())
	})

	s.Run("boolean value passes", func() {
		req := &EditFieldRequest{Value: json.RawMessage(`true`)}
		err := req.Validate()
		s.Require().NoError(err)
		s.Equal(true, req.ParsedValue())
	})

	s.Run("missing value rejected", func() {
		req := &EditFieldRequest{}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "value is required")
	})

	s.Run("explicit null rejected", func() {
		req := &EditFieldRequest{Value: json.RawMessage(`null`)}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "value must not be null")
	})

	s.Run("malformed json rejected", func() {
		req := &EditFieldRequest{Value: json.RawMessage(`{"unclosed`)}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "value is not valid json")
	})

	s.Run("oversized value rejected", func() {
		raw := `"` + strings.Repeat("a", 1100) + `"`
		req := &EditFieldRequest{Value: json.RawMessage(raw)}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "value must be at most 1024 bytes")
	})

	s.Run("nil request rejected", func() {
		var req *EditFieldRequest
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "request body is required")
	})
}

// JustificationRequestSuite tests JustificationRequest validation.
type JustificationRequestSuite struct {
	suite.Suite
}

func TestJustificationRequestSuite(t *testing.T) {
	suite.Run(t, new(JustificationRequestSuite))
}

func (s *JustificationRequestSuite) TestValidation() {
	s.Run("valid text passes", func() {
		req := &JustificationRequest{Text: "Team dinner with the client, five attendees."}
		err := req.Validate()
		s.NoError(err)
	})

	s.Run("surrounding whitespace trimmed", func() {
		req := &JustificationRequest{Text: "  approved by lead  "}
		err := req.Validate()
		s.Require().NoError(err)
		s.Equal("approved by lead", req.Text)
	})

	s.Run("empty text rejected", func() {
		req := &JustificationRequest{}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "justification text is required")
	})

	s.Run("blank text rejected", func() {
		req := &JustificationRequest{Text: "   \t\n"}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "justification text is required")
	})

	s.Run("oversized text rejected", func() {
		req := &JustificationRequest{Text: strings.Repeat("j", 2001)}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "at most 2000 characters")
	})

	s.Run("nil request rejected", func() {
		var req *JustificationRequest
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "request body is required")
	})
}

// ExplainRequestSuite tests ExplainRequest validation.
type ExplainRequestSuite struct {
	suite.Suite
}

func TestExplainRequestSuite(t *testing.T) {
	suite.Run(t, new(ExplainRequestSuite))
}

func (s *ExplainRequestSuite) TestValidation() {
	s.Run("valid question passes", func() {
		req := &ExplainRequest{Question: "Why was the total flagged?"}
		err := req.Validate()
		s.NoError(err)
	})

	s.Run("surrounding whitespace trimmed", func() {
		req := &ExplainRequest{Question: "  Why was the total flagged?  "}
		err := req.Validate()
		s.Require().NoError(err)
		s.Equal("Why was the total flagged?", req.Question)
	})

	s.Run("blank question rejected", func() {
		req := &ExplainRequest{Question: "   "}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "question is required")
	})

	s.Run("oversized question rejected", func() {
		req := &ExplainRequest{Question: strings.Repeat("q", 1001)}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "at most 1000 characters")
	})

	s.Run("nil request rejected", func() {
		var req *ExplainRequest
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "request body is required")
	})
}
