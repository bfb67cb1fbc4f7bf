package router

import (
	"strings"

	"github.com/hupe1980/sherpa/core"
)

// KeywordGroup maps a set of lowercase substrings to an agent.
type KeywordGroup struct {
	AgentID  core.AgentID
	Keywords []string
}

// Matches reports whether the lowercased message contains any keyword.
func (g KeywordGroup) Matches(lowered string) bool {
	for _, k := range g.Keywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}

	return false
}

// DefaultKeywordGroups returns the fallback groups in priority order: more
// specific groups come first. Each call returns a fresh copy.
func DefaultKeywordGroups() []KeywordGroup {
	return []KeywordGroup{
		{
			AgentID:  core.AgentFrameworkDesigner,
			Keywords: []string{"lean canvas", "business model canvas", "bmc", "캔버스", "린캔버스", "비즈니스모델캔버스", "비즈니스 모델 캔버스"},
		},
		{
			AgentID:  core.AgentGrantHunter,
			Keywords: []string{"보조금", "지원사업", "k-startup", "k startup", "정부", "지원", "grant", "government", "funding", "자금조달", "지원금"},
		},
		{
			AgentID:  core.AgentMarketSensor,
			Keywords: []string{"경쟁사", "시장", "트렌드", "경쟁력", "시장분석", "market", "competitor", "trend", "analysis", "경쟁", "시장규모"},
		},
		{
			AgentID:  core.AgentMVPBuilder,
			Keywords: []string{"코드", "개발", "mvp", "prd", "프로토타입", "프로그래밍", "code", "build", "prototype", "programming", "개발해", "만들어", "기술", "구현"},
		},
		{
			AgentID:  core.AgentVCSimulator,
			Keywords: []string{"투자", "vc", "벤처캐피털", "피치", "펀드레이징", "investor", "pitch", "fundraising", "투자유치", "피치덱"},
		},
		{
			AgentID:  core.AgentGrowthHacker,
			Keywords: []string{"마케팅", "홍보", "콘텐츠", "콜드 이메일", "소셜미디어", "소셜 미디어", "블로그", "seo", "성장", "마케팅 글", "포스트", "이메일 작성", "marketing", "growth", "content", "email"},
		},
		{
			AgentID:  core.AgentLegalAdvisor,
			Keywords: []string{"계약서", "법률", "nda", "비밀유지서약서", "법률 검토", "변호사", "조항", "합의서", "계약", "법률 자문", "contract", "legal", "lawyer", "clause", "agreement", "mou"},
		},
		{
			AgentID:  core.AgentCofounder,
			Keywords: []string{"비즈니스", "전략", "모델", "아이디어", "창업", "business", "strategy", "cofounder", "idea", "startup"},
		},
	}
}

// KeywordRouter is the deterministic fallback router. It is immutable after
// construction and safe for concurrent use.
type KeywordRouter struct {
	groups    []KeywordGroup
	defaultID core.AgentID
}

// NewKeywordRouter copies groups and returns a router falling back to defaultID.
func NewKeywordRouter(groups []KeywordGroup, defaultID core.AgentID) *KeywordRouter {
	cp := make([]KeywordGroup, len(groups))
	for i, g := range groups {
		cp[i] = KeywordGroup{AgentID: g.AgentID, Keywords: make([]string, len(g.Keywords))}
		for j, k := range g.Keywords {
			cp[i].Keywords[j] = strings.ToLower(k)
		}
	}

	return &KeywordRouter{groups: cp, defaultID: defaultID}
}

// Match returns the agent of the first group matching message.
func (r *KeywordRouter) Match(message string) (core.AgentID, bool) {
	lowered := strings.ToLower(message)

	for _, g := range r.groups {
		if g.Matches(lowered) {
			return g.AgentID, true
		}
	}

	return "", false
}

// Route returns the first matching agent or the default agent.
func (r *KeywordRouter) Route(message string) core.AgentID {
	if id, ok := r.Match(message); ok {
		return id
	}

	return r.defaultID
}

// Groups returns a copy of the configured groups.
func (r *KeywordRouter) Groups() []KeywordGroup {
	return NewKeywordRouter(r.groups, r.defaultID).groups
}
