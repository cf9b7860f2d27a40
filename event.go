// event.go
package analytics

import (
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// EventKind
// ------------------------------------------------------------
// 이벤트 종류 태그. Event는 생성 시점에 정확히 하나의 kind를 갖고,
// 이후 절대 변하지 않는다 (직렬화/전송 경로 전체에서 불변).
type EventKind uint8

const (
	KindIdentify EventKind = iota
	KindTrack
	KindPage
	KindScreen
	KindGroup
	KindAlias
)

// String은 수집 서버 payload에 그대로 들어가는 소문자 고정 문자열을 반환한다.
func (k EventKind) String() string {
	switch k {
	case KindIdentify:
		return "identify"
	case KindTrack:
		return "track"
	case KindPage:
		return "page"
	case KindScreen:
		return "screen"
	case KindGroup:
		return "group"
	case KindAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// Event
// ------------------------------------------------------------
// 애플리케이션이 제출하는 단일 analytics 이벤트.
// facade 호출 스레드에서 동기적으로 생성 → 즉시 직렬화 → 폐기되며,
// Event 객체 자체는 큐 경계를 넘지 않는다 (직렬화 결과만 넘어감).
//
// UserID가 비어 있어도 AnonymousID가 설정되어 있으면 유효하다.
// Properties는 생성자에서 복사되므로 호출자가 이후 map을 수정해도
// 이벤트 내용은 바뀌지 않는다.
type Event struct {
	kind      EventKind
	messageID string

	UserID      string
	AnonymousID string
	Name        string // track/page/screen 이벤트 이름
	GroupID     string
	PreviousID  string
	Properties  map[string]string // identify/group에서는 traits로 직렬화됨
}

func newEvent(kind EventKind, properties map[string]string) Event {
	// 호출자 map 재사용으로 인한 변조 방지 — 항상 복사본 보관
	var props map[string]string
	if len(properties) > 0 {
		props = make(map[string]string, len(properties))
		for k, v := range properties {
			props[k] = v
		}
	}
	return Event{
		kind:       kind,
		messageID:  uuid.NewString(),
		Properties: props,
	}
}

// NewTrackEvent는 사용자 행동(action) 이벤트를 생성한다.
func NewTrackEvent(event, userID string, properties map[string]string) Event {
	e := newEvent(KindTrack, properties)
	e.Name = event
	e.UserID = userID
	return e
}

// NewIdentifyEvent는 사용자 식별(traits 갱신) 이벤트를 생성한다.
func NewIdentifyEvent(userID string, traits map[string]string) Event {
	e := newEvent(KindIdentify, traits)
	e.UserID = userID
	return e
}

// NewPageEvent는 페이지 조회 이벤트를 생성한다.
func NewPageEvent(name, userID string, properties map[string]string) Event {
	e := newEvent(KindPage, properties)
	e.Name = name
	e.UserID = userID
	return e
}

// NewScreenEvent는 모바일 화면 조회 이벤트를 생성한다.
func NewScreenEvent(name, userID string, properties map[string]string) Event {
	e := newEvent(KindScreen, properties)
	e.Name = name
	e.UserID = userID
	return e
}

// NewGroupEvent는 사용자-그룹 연결 이벤트를 생성한다.
func NewGroupEvent(groupID string, traits map[string]string) Event {
	e := newEvent(KindGroup, traits)
	e.GroupID = groupID
	return e
}

// NewAliasEvent는 식별자 병합(previousId → userId) 이벤트를 생성한다.
func NewAliasEvent(previousID, userID string) Event {
	e := newEvent(KindAlias, nil)
	e.PreviousID = previousID
	e.UserID = userID
	return e
}

// Kind는 이벤트 종류 태그를 반환한다.
func (e Event) Kind() EventKind { return e.kind }

// Type은 payload에 들어가는 소문자 종류 문자열을 반환한다. 예: "track"
func (e Event) Type() string { return e.kind.String() }

// MessageID는 생성 시 부여된 고유 ID를 반환한다.
// 수집 서버에서 중복 제거(dedupe) 기준으로 사용된다.
func (e Event) MessageID() string { return e.messageID }

// Validate
// ------------------------------------------------------------
// 이벤트 종류별 필수 필드를 검사한다.
// 큐에 들어가기 전에 facade에서 호출되며, 실패하면 해당 이벤트는
// 절대 enqueue 되지 않는다 (fail-fast).
//
// 규칙:
//   - identify/track/page/screen: UserID 또는 AnonymousID 중 하나 필수
//   - track/page/screen: Name 필수
//   - group: GroupID 필수
//   - alias: PreviousID, UserID 모두 필수
func (e Event) Validate() error {
	switch e.kind {
	case KindIdentify:
		if e.UserID == "" && e.AnonymousID == "" {
			return &ValidationError{Type: e.Type(), Field: "userId", Reason: "userId or anonymousId required"}
		}
	case KindTrack, KindPage, KindScreen:
		if e.Name == "" {
			return &ValidationError{Type: e.Type(), Field: "event", Reason: "event name required"}
		}
		if e.UserID == "" && e.AnonymousID == "" {
			return &ValidationError{Type: e.Type(), Field: "userId", Reason: "userId or anonymousId required"}
		}
	case KindGroup:
		if e.GroupID == "" {
			return &ValidationError{Type: e.Type(), Field: "groupId", Reason: "groupId required"}
		}
	case KindAlias:
		if e.PreviousID == "" {
			return &ValidationError{Type: e.Type(), Field: "previousId", Reason: "previousId required"}
		}
		if e.UserID == "" {
			return &ValidationError{Type: e.Type(), Field: "userId", Reason: "userId required"}
		}
	default:
		return &ValidationError{Type: "unknown", Field: "type", Reason: "invalid event kind"}
	}
	return nil
}

// wireEvent는 직렬화 전용 구조체.
// 빈 optional 필드는 payload에서 생략한다(omitempty) — payload 크기 절감 +
// 수신 측에서 "빈 문자열 vs 없음" 모호성 제거.
type wireEvent struct {
	Type        string            `json:"type"`
	MessageID   string            `json:"messageId,omitempty"`
	UserID      string            `json:"userId,omitempty"`
	AnonymousID string            `json:"anonymousId,omitempty"`
	Event       string            `json:"event,omitempty"`
	GroupID     string            `json:"groupId,omitempty"`
	PreviousID  string            `json:"previousId,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	Traits      map[string]string `json:"traits,omitempty"`
}

// Serialize는 이벤트를 canonical JSON payload로 변환한다.
// 같은 Event에 대해 몇 번을 호출해도 동일한 바이트가 나온다(멱등).
// identify/group의 속성 map은 관례에 따라 "traits" 키로 나간다.
func (e Event) Serialize() (json.RawMessage, error) {
	w := wireEvent{
		Type:        e.Type(),
		MessageID:   e.messageID,
		UserID:      e.UserID,
		AnonymousID: e.AnonymousID,
		Event:       e.Name,
		GroupID:     e.GroupID,
		PreviousID:  e.PreviousID,
	}
	if len(e.Properties) > 0 {
		if e.kind == KindIdentify || e.kind == KindGroup {
			w.Traits = e.Properties
		} else {
			w.Properties = e.Properties
		}
	}
	return json.Marshal(w)
}
