package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/sherpa/core"
)

// Registry is an immutable, ordered set of persona descriptors. It is built
// once at startup and safe for concurrent use.
type Registry struct {
	order   []core.AgentID
	byID    map[core.AgentID]Descriptor
	byLabel map[string]core.AgentID
}

// NewRegistry validates the descriptors and builds a registry preserving
// their order. IDs and labels must be unique and every descriptor needs a
// prompt template.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		order:   make([]core.AgentID, 0, len(descriptors)),
		byID:    make(map[core.AgentID]Descriptor, len(descriptors)),
		byLabel: make(map[string]core.AgentID, len(descriptors)),
	}

	for _, d := range descriptors {
		if d.ID == "" || d.ID.IsFinish() {
			return nil, fmt.Errorf("%w: invalid agent id %q", core.ErrConfiguration, d.ID)
		}

		if strings.TrimSpace(d.PromptTemplate) == "" {
			return nil, fmt.Errorf("%w: agent %q has no prompt template", core.ErrConfiguration, d.ID)
		}

		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate agent id %q", core.ErrConfiguration, d.ID)
		}

		label := d.Label
		if label == "" {
			label = string(d.ID)
			d.Label = label
		}

		if _, dup := r.byLabel[label]; dup {
			return nil, fmt.Errorf("%w: duplicate agent label %q", core.ErrConfiguration, label)
		}

		d.Topics = append([]string(nil), d.Topics...)

		r.order = append(r.order, d.ID)
		r.byID[d.ID] = d
		r.byLabel[label] = d.ID
	}

	return r, nil
}

// Get returns the descriptor for id or an *core.UnknownAgentError.
func (r *Registry) Get(id core.AgentID) (Descriptor, error) {
	d, ok := r.byID[id]
	if !ok {
		return Descriptor{}, core.NewUnknownAgentError(id)
	}

	return d, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id core.AgentID) bool {
	_, ok := r.byID[id]
	return ok
}

// Lookup resolves a classifier label into an agent id using an exact match.
func (r *Registry) Lookup(label string) (core.AgentID, bool) {
	id, ok := r.byLabel[label]
	return id, ok
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []core.AgentID {
	return append([]core.AgentID(nil), r.order...)
}

// Labels returns the classifier labels in registration order.
func (r *Registry) Labels() []string {
	labels := make([]string, 0, len(r.order))
	for _, id := range r.order {
		labels = append(labels, r.byID[id].Label)
	}

	return labels
}

// Descriptors returns a copy of all descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}

	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int { return len(r.order) }

// DefaultRegistry returns the registry with the eight built-in personas.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultDescriptors()...)
	if err != nil {
		// The built-in table is static; failing here is a programming error.
		panic(err)
	}

	return r
}

// DefaultDescriptors returns the built-in persona definitions.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			ID:             core.AgentCofounder,
			Label:          "CofounderAgent",
			Name:           "Virtual Co-founder",
			Description:    "비즈니스 전략, 비즈니스 모델 논의, 멘탈 지원, 논리적 토론, 창업 아이디어 검토, 일반적인 창업 조언",
			Topics:         []string{"business strategy", "business model", "idea review", "mental support"},
			PromptTemplate: cofounderPrompt,
		},
		{
			ID:             core.AgentVCSimulator,
			Label:          "VCSimulator",
			Name:           "VC Simulator",
			Description:    "피치덱 리뷰, 투자자 질문, 펀드레이징 준비, 투자 유치 상담, VC 피칭, 투자자 관점의 피드백",
			Topics:         []string{"pitch deck", "investor questions", "fundraising"},
			PromptTemplate: vcSimulatorPrompt,
		},
		{
			ID:             core.AgentGrantHunter,
			Label:          "GrantHunter",
			Name:           "Grant Hunter",
			Description:    "정부 보조금 검색, 보조금 신청, 자금 조달 기회, K-Startup 프로그램, 정부 지원사업, 지원금",
			Topics:         []string{"government grants", "K-Startup", "funding programs"},
			PromptTemplate: grantHunterPrompt,
			UsesSearchTool: true,
		},
		{
			ID:             core.AgentMarketSensor,
			Label:          "MarketSensor",
			Name:           "Market Sensor",
			Description:    "경쟁사 분석, 시장 트렌드, 감정 분석, 산업 인텔리전스, 시장 조사, 경쟁 분석, 시장 규모",
			Topics:         []string{"competitors", "market trends", "market size"},
			PromptTemplate: marketSensorPrompt,
			UsesSearchTool: true,
		},
		{
			ID:             core.AgentMVPBuilder,
			Label:          "MVPBuilder",
			Name:           "MVP Builder",
			Description:    "PRD 생성, 코딩 작업, 랜딩 페이지, 프로토타이핑, 개발, 코드 작성, 기술 구현",
			Topics:         []string{"PRD", "code", "landing page", "prototype"},
			PromptTemplate: mvpBuilderPrompt,
		},
		{
			ID:             core.AgentFrameworkDesigner,
			Label:          "FrameworkDesigner",
			Name:           "Framework Designer",
			Description:    "구조화된 비즈니스 프레임워크 생성 (Lean Canvas, Business Model Canvas), 캔버스 작성",
			Topics:         []string{"Lean Canvas", "Business Model Canvas"},
			PromptTemplate: frameworkDesignerPrompt,
			PostProcess:    PostProcessCanvas,
		},
		{
			ID:             core.AgentGrowthHacker,
			Label:          "GrowthHacker",
			Name:           "Growth Hacker",
			Description:    "마케팅 콘텐츠 작성, 콜드 이메일, 소셜 미디어 포스트, 블로그 글, SEO 최적화, 성장 마케팅",
			Topics:         []string{"cold email", "social media", "blog", "SEO"},
			PromptTemplate: growthHackerPrompt,
		},
		{
			ID:             core.AgentLegalAdvisor,
			Label:          "LegalAdvisor",
			Name:           "Legal Advisor",
			Description:    "계약서 작성, 법률 검토, NDA, MOU, 서비스 계약서, 고용 계약서, 법률 조항 분석, 법률 자문",
			Topics:         []string{"contracts", "NDA", "MOU", "clause review"},
			PromptTemplate: legalAdvisorPrompt,
			PostProcess:    PostProcessDisclaimer,
		},
	}
}
