package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"social-hub/config"
	"social-hub/pkg/jwt"
)

// 点赞切换压测：同一用户对同一帖子并发切换点赞，
// 结束后校验最终点赞状态与成功次数的奇偶性一致

type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Retryable bool            `json:"retryable"`
}

type BenchStats struct {
	Total      int
	Successful int
	Conflicts  int
	Failed     int
	MaxLatency time.Duration
	sumLatency time.Duration
	mu         sync.Mutex
}

func (s *BenchStats) Add(env *envelope, err error, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Total++
	s.sumLatency += latency
	if latency > s.MaxLatency {
		s.MaxLatency = latency
	}
	switch {
	case err != nil:
		s.Failed++
	case env.Code == 0:
		s.Successful++
	case env.Retryable:
		s.Conflicts++
	default:
		s.Failed++
	}
}

func (s *BenchStats) AverageLatency() time.Duration {
	if s.Total == 0 {
		return 0
	}
	return s.sumLatency / time.Duration(s.Total)
}

type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func (c *apiClient) do(method, path string, body interface{}) (*envelope, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

func intArg(i, def int) int {
	if len(os.Args) > i {
		if v, err := strconv.Atoi(os.Args[i]); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func main() {
	concurrency := intArg(1, 10)
	perGoroutine := intArg(2, 20)

	baseURL := os.Getenv("BENCH_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	// 用服务端同一份JWT配置签发压测用户的令牌
	cfg := config.LoadConfig()
	token, err := jwt.NewJWTService(cfg.JWT).GenerateToken("bench-user", nil)
	if err != nil {
		fmt.Println("签发令牌失败:", err)
		os.Exit(1)
	}
	client := &apiClient{base: baseURL, token: token, http: &http.Client{Timeout: 8 * time.Second}}

	fmt.Println("=== 点赞切换并发测试 ===")
	fmt.Printf("目标: %s 并发: %d 每协程切换: %d\n", baseURL, concurrency, perGoroutine)

	if _, err := client.do(http.MethodPut, "/api/v1/users/me", map[string]string{"displayName": "Bench User"}); err != nil {
		fmt.Println("同步用户失败:", err)
		os.Exit(1)
	}

	env, err := client.do(http.MethodPost, "/api/v1/posts", map[string]string{"content": "bench " + time.Now().Format(time.RFC3339)})
	if err != nil || env.Code != 0 {
		fmt.Println("创建帖子失败:", err, env)
		os.Exit(1)
	}
	var post struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &post); err != nil {
		fmt.Println("解析帖子失败:", err)
		os.Exit(1)
	}
	likePath := fmt.Sprintf("/api/v1/posts/%d/like", post.ID)

	stats := &BenchStats{}
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				begin := time.Now()
				env, err := client.do(http.MethodPost, likePath, nil)
				stats.Add(env, err, time.Since(begin))
			}
		}()
	}
	wg.Wait()
	took := time.Since(start)

	env, err = client.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post.ID), nil)
	if err != nil || env.Code != 0 {
		fmt.Println("读取帖子失败:", err, env)
		os.Exit(1)
	}
	var final struct {
		IsLiked    bool `json:"isLiked"`
		LikesCount int  `json:"likesCount"`
	}
	if err := json.Unmarshal(env.Data, &final); err != nil {
		fmt.Println("解析帖子失败:", err)
		os.Exit(1)
	}

	fmt.Println("\n=== 测试结果 ===")
	fmt.Printf("耗时: %v\n", took)
	fmt.Printf("总请求: %d 成功: %d 冲突: %d 失败: %d\n", stats.Total, stats.Successful, stats.Conflicts, stats.Failed)
	fmt.Printf("延迟 平均: %v 最大: %v\n", stats.AverageLatency(), stats.MaxLatency)
	if took > 0 {
		fmt.Printf("QPS: %.2f\n", float64(stats.Total)/took.Seconds())
	}

	expected := stats.Successful%2 == 1
	fmt.Printf("最终状态 isLiked=%v likesCount=%d 期望 isLiked=%v\n", final.IsLiked, final.LikesCount, expected)
	if final.IsLiked != expected || final.LikesCount > 1 {
		fmt.Println("校验失败：点赞状态与成功切换次数不一致")
		os.Exit(1)
	}
	fmt.Println("校验通过")
}
