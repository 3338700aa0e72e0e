package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/prompt-image-kit/pkg/domain"
)

// fetchOnce は再試行せずに1回だけ GET を発行します。
// 応答の解釈（サイズ上限、ステータス判定）は httpkit.HandleResponse に従い、
// 2xx 以外は domain.HTTPStatusError として返します。
func fetchOnce(ctx context.Context, client HTTPClient, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", httpkit.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		// エラーメッセージにURL（プロンプトを含む）を残さない
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}

	status := resp.StatusCode
	body, err := httpkit.HandleResponse(resp)
	if err != nil {
		if status < 200 || status > 299 {
			return nil, &domain.HTTPStatusError{StatusCode: status, Err: err}
		}
		return nil, err
	}
	return body, nil
}

var _ HTTPClient = (*httpkit.Client)(nil)
