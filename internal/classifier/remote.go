package classifier

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
)

// Remote calls a model server exposing POST {baseURL}/predict/{model}.
type Remote struct {
	baseURL    string
	httpClient *http.Client
}

type predictRequest struct {
	Features [][]float64 `json:"features"`
}

type predictResponse struct {
	Prediction []float64 `json:"prediction"`
}

// NewRemote creates a model server client.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	return &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Model returns a Predictor bound to one named model.
func (r *Remote) Model(name string) Predictor {
	return Func(func(ctx context.Context, features []float64) (int, error) {
		return r.predict(ctx, name, features)
	})
}

func (r *Remote) predict(ctx context.Context, model string, features []float64) (int, error) {
	body, err := sonic.Marshal(predictRequest{Features: [][]float64{features}})
	if err != nil {
		return 0, errors.Wrap(err, "encode predict request")
	}

	endpoint := r.baseURL + "/predict/" + url.PathEscape(model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, errors.Wrap(err, "build predict request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrapf(err, "predict %s", model)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, errors.Wrapf(err, "read predict %s response", model)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, errors.Newf("predict %s: model server returned %d", model, resp.StatusCode)
	}

	var out predictResponse
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return 0, errors.Wrapf(err, "decode predict %s response", model)
	}
	if len(out.Prediction) == 0 {
		return 0, errors.Newf("predict %s: empty prediction", model)
	}
	return int(out.Prediction[0]), nil
}
