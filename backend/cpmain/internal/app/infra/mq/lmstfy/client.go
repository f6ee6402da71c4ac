package lmstfy

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client Lmstfy HTTP 客户端
type Client struct {
	host       string
	namespace  string
	token      string
	httpClient *http.Client

	// 发布参数
	ttl   int // 消息存活时间（秒），0 表示永不过期
	tries int // 最大投递次数
}

// NewClient 创建 Lmstfy 客户端
func NewClient(host, namespace, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		host:       strings.TrimSuffix(host, "/"),
		namespace:  namespace,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		ttl:        3600,
		tries:      3,
	}
}

// Publish 发布消息到队列，返回 job_id
func (c *Client) Publish(ctx context.Context, queue string, data interface{}) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	// 与官方 Go 客户端一致：参数走 query，body 为原始 JSON
	q := url.Values{}
	q.Set("ttl", fmt.Sprint(c.ttl))
	q.Set("delay", "0")
	q.Set("tries", fmt.Sprint(c.tries))
	endpoint := fmt.Sprintf("%s/api/%s/%s?%s", c.host, c.namespace, queue, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	c.setToken(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lmstfy publish failed: status=%d", resp.StatusCode)
	}

	var body struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("lmstfy publish: decode response failed: %w", err)
	}
	return body.JobID, nil
}

// Message 队列消息结构
type Message struct {
	JobID string          `json:"job_id"`
	Data  json.RawMessage `json:"data"`
}

// Consume 从队列中消费消息，队列为空时返回 nil, nil
// timeout: 等待超时时间（秒），ttr: 消息处理超时时间（秒）
func (c *Client) Consume(ctx context.Context, queue string, timeout, ttr int) (*Message, error) {
	endpoint := fmt.Sprintf("%s/api/%s/%s?timeout=%d&ttr=%d", c.host, c.namespace, queue, timeout, ttr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setToken(req)

	// 长轮询，不受 httpClient 超时限制
	client := *c.httpClient
	client.Timeout = time.Duration(timeout)*time.Second + c.httpClient.Timeout
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lmstfy consume failed: status=%d", resp.StatusCode)
	}

	// lmstfy 返回的 data 为 base64 编码
	var body struct {
		JobID string `json:"job_id"`
		Data  string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	decoded, err := base64.StdEncoding.DecodeString(body.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to base64 decode message data: %w", err)
	}

	return &Message{
		JobID: body.JobID,
		Data:  json.RawMessage(decoded),
	}, nil
}

// Ack 确认消息已处理
func (c *Client) Ack(ctx context.Context, queue, jobID string) error {
	endpoint := fmt.Sprintf("%s/api/%s/%s/job/%s", c.host, c.namespace, queue, url.PathEscape(jobID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	c.setToken(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lmstfy ack failed: status=%d", resp.StatusCode)
	}
	return nil
}

func (c *Client) setToken(req *http.Request) {
	if c.token != "" {
		req.Header.Set("X-Token", c.token)
	}
}
