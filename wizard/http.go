package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/model"
)

// RemoteError is a non-success answer from the survey API.
type RemoteError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("survey API: %s", http.StatusText(e.Status))
	}
	return fmt.Sprintf("survey API: %d %s", e.Status, e.Message)
}

// HTTPSubmitter talks to the public survey endpoints of a running server.
type HTTPSubmitter struct {
	BaseURL string
	Client  *http.Client
}

func (s HTTPSubmitter) client() *http.Client {
	if s.Client == nil {
		return http.DefaultClient
	}
	return s.Client
}

func (s HTTPSubmitter) endpoint(surveyID string, suffix string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/api/surveys/" + url.PathEscape(surveyID) + suffix
}

// Survey fetches the survey with its questions, ready for New.
func (s HTTPSubmitter) Survey(ctx context.Context, surveyID string) (model.Survey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(surveyID, ""), nil)
	if err != nil {
		return model.Survey{}, err
	}

	var survey model.Survey
	err = s.do(req, http.StatusOK, &survey)
	return survey, err
}

func (s HTTPSubmitter) Submit(ctx context.Context, surveyID string, body model.SubmitRequest) (model.SubmitResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return model.SubmitResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(surveyID, "/respond"), bytes.NewReader(data))
	if err != nil {
		return model.SubmitResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp model.SubmitResponse
	err = s.do(req, http.StatusCreated, &resp)
	return resp, err
}

func (s HTTPSubmitter) do(req *http.Request, want int, v any) error {
	resp, err := s.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		errBody := httpx.ErrorBody{}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &RemoteError{Status: resp.StatusCode, Message: errBody.Error, Fields: errBody.Errors}
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
