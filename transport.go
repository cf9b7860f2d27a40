// transport.go
package analytics

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"
)

// HttpRequest
// ------------------------------------------------------------
// 전송 1회 시도에 사용되는 요청. 시도마다 새로 만들어지고
// Handler 호출이 끝나면 폐기된다.
//
// Headers는 key당 entry 하나만 허용한다. 같은 key에 값이 여러 개
// 필요하면 comma로 join해서 넣는다 (HTTP RFC상 의미 동일).
type HttpRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte // 배치 직렬화 결과. 수집 서버 제한(512KB) 이내로 분할되어 들어온다.
}

// HttpResponse는 Handler가 돌려주는 응답이다.
// Code 0은 "요청이 서버에 도달하지 못했거나 유효한 응답을 받지 못함"을
// 뜻하는 예약값이며, 이때 Message에 시스템 에러 설명이 들어간다.
type HttpResponse struct {
	Code    int
	Message string
	Headers map[string]string
	Body    []byte
}

// Handler
// ------------------------------------------------------------
// 동기 request/response 교환 1회를 수행하는 전송 계층 추상화.
// 네트워크 I/O로 블록할 수 있으나, 일반적인 네트워크 실패에 대해
// panic 해서는 안 된다 — 실패는 Code/Message로 보고한다.
// 타임아웃 등도 구현체 책임이며, 엔진은 Code 0을 일반 실패로 취급한다.
//
// 런타임에 교체 가능하다. 엔진은 전송 시도 시작 시점에 참조 스냅샷을
// 떠서 쓰므로, 교체 이후의 배치부터 새 Handler로 나간다.
type Handler interface {
	Handle(req HttpRequest) HttpResponse
}

// DiscardHandler는 아무 것도 하지 않는 stub 구현이다.
// 네트워크 전송이 전혀 필요 없는 빌드/테스트에서 기본값 대용으로 쓴다.
// 항상 Code 0을 반환하므로 모든 배치는 재시도 후 Failed로 보고된다.
type DiscardHandler struct{}

func (DiscardHandler) Handle(HttpRequest) HttpResponse {
	return HttpResponse{Code: 0, Message: "unimplemented"}
}

// httpHandler는 net/http 기반 기본 Handler 구현이다.
type httpHandler struct {
	client *http.Client
}

// NewHTTPHandler는 주어진 요청 timeout으로 기본 HTTP 전송을 생성한다.
// timeout <= 0이면 10초를 쓴다.
func NewHTTPHandler(timeout time.Duration) Handler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpHandler{
		client: &http.Client{Timeout: timeout},
	}
}

// Handle은 요청을 1회 수행한다. 전송 자체가 실패하면 Code 0과
// 에러 메시지를 채워 반환하고, 응답을 받았으면 상태코드를 그대로 넘긴다.
// 재시도 판단은 전적으로 엔진 몫이다.
func (h *httpHandler) Handle(req HttpRequest) HttpResponse {
	hr, err := http.NewRequest(req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return HttpResponse{Code: 0, Message: err.Error()}
	}
	for k, v := range req.Headers {
		hr.Header.Set(k, v)
	}

	resp, err := h.client.Do(hr)
	if err != nil {
		return HttpResponse{Code: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	// 응답 body는 현재 아무도 안 쓰지만, 진단용으로 제한된 크기만 읽어둔다.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	headers := make(map[string]string, len(resp.Header))
	for k, vs := range resp.Header {
		headers[k] = strings.Join(vs, ", ")
	}

	return HttpResponse{
		Code:    resp.StatusCode,
		Message: resp.Status,
		Headers: headers,
		Body:    body,
	}
}
