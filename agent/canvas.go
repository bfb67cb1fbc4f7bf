package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/sherpa/internal/util"
	"github.com/hupe1980/sherpa/model"
)

// CanvasKind identifies a structured business framework.
type CanvasKind string

const (
	// CanvasLean is the Lean Canvas.
	CanvasLean CanvasKind = "lean_canvas"
	// CanvasBusinessModel is the Business Model Canvas.
	CanvasBusinessModel CanvasKind = "business_model_canvas"
)

// CanvasClarification is appended to the user turn when no canvas type can
// be detected.
const CanvasClarification = "\n\n어떤 비즈니스 프레임워크를 작성하시겠습니까? 'Lean Canvas' 또는 'Business Model Canvas'를 선택해주세요."

var (
	leanCanvasMarkers    = []string{"lean canvas", "린 캔버스", "린캔버스"}
	businessModelMarkers = []string{"business model canvas", "bmc", "비즈니스 모델 캔버스", "비즈니스모델캔버스"}
)

// LeanCanvas holds the nine Lean Canvas blocks.
type LeanCanvas struct {
	Problem          string `json:"problem" description:"고객이 직면한 상위 3가지 문제"`
	Solution         string `json:"solution" description:"해결책의 상위 3가지 기능"`
	UniqueValueProp  string `json:"unique_value_prop" description:"당신이 다르고 구매할 가치가 있는 이유를 명확하게 전달하는 단일 메시지"`
	UnfairAdvantage  string `json:"unfair_advantage" description:"쉽게 복사하거나 구매할 수 없는 것"`
	CustomerSegments string `json:"customer_segments" description:"타겟 고객과 사용자"`
	KeyMetrics       string `json:"key_metrics" description:"비즈니스가 어떻게 진행되고 있는지 알려주는 핵심 숫자"`
	Channels         string `json:"channels" description:"고객에게 도달하는 경로"`
	CostStructure    string `json:"cost_structure" description:"고객 획득 비용, 유통 비용, 호스팅, 인력 등"`
	RevenueStreams   string `json:"revenue_streams" description:"수익 모델, 고객 생애 가치, 수익, 총 마진"`
}

// BusinessModelCanvas holds the nine Business Model Canvas blocks.
type BusinessModelCanvas struct {
	KeyPartners           string `json:"key_partners" description:"핵심 파트너/공급업체는 누구인가요? 어떤 핵심 자원을 그들로부터 획득하나요?"`
	KeyActivities         string `json:"key_activities" description:"가치 제안을 위해 필요한 핵심 활동은 무엇인가요?"`
	KeyResources          string `json:"key_resources" description:"가치 제안을 위해 필요한 핵심 자원은 무엇인가요?"`
	ValuePropositions     string `json:"value_propositions" description:"고객에게 제공하는 가치는 무엇인가요? 어떤 문제를 해결하나요?"`
	CustomerRelationships string `json:"customer_relationships" description:"각 고객 세그먼트가 기대하는 관계 유형은 무엇인가요?"`
	Channels              string `json:"channels" description:"고객에게 어떻게 도달하고 가치를 전달하나요?"`
	CustomerSegments      string `json:"customer_segments" description:"가장 중요한 고객은 누구인가요?"`
	CostStructure         string `json:"cost_structure" description:"비즈니스 모델에 내재된 가장 중요한 비용은 무엇인가요?"`
	RevenueStreams        string `json:"revenue_streams" description:"고객이 어떤 가치에 대해 비용을 지불하나요? 어떻게 지불하나요?"`
}

// CanvasPayload is the serialized form of a generated canvas.
type CanvasPayload struct {
	Type CanvasKind `json:"type"`
	Data any        `json:"data"`
}

// DetectCanvas inspects a user message for canvas markers. Lean Canvas
// markers win over Business Model Canvas markers.
func DetectCanvas(message string) (CanvasKind, bool) {
	lower := strings.ToLower(message)

	if containsAny(lower, leanCanvasMarkers) {
		return CanvasLean, true
	}

	if containsAny(lower, businessModelMarkers) {
		return CanvasBusinessModel, true
	}

	return "", false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}

	return false
}

// canvasSpec bundles everything needed to request and check one canvas kind.
type canvasSpec struct {
	kind        CanvasKind
	title       string
	description string
	schema      map[string]any
	validator   *util.Schema
	newValue    func() any
	blocks      string
}

// canvasSpecs is built once; the schemas are derived from the structs above.
var canvasSpecs = mustCanvasSpecs()

func mustCanvasSpecs() map[CanvasKind]*canvasSpec {
	specs := map[CanvasKind]*canvasSpec{
		CanvasLean: {
			kind:        CanvasLean,
			title:       "Lean Canvas",
			description: "Lean Canvas - 9 blocks structure",
			schema:      util.CreateSchema(LeanCanvas{}),
			newValue:    func() any { return &LeanCanvas{} },
			blocks: `1. Problem (문제) - 고객이 직면한 상위 3가지 문제
2. Solution (해결책) - 해결책의 상위 3가지 기능
3. Unique Value Proposition (고유 가치 제안) - 당신이 다르고 구매할 가치가 있는 이유를 명확하게 전달하는 단일 메시지
4. Unfair Advantage (불공정한 우위) - 쉽게 복사하거나 구매할 수 없는 것
5. Customer Segments (고객 세그먼트) - 타겟 고객과 사용자
6. Key Metrics (핵심 지표) - 비즈니스가 어떻게 진행되고 있는지 알려주는 핵심 숫자
7. Channels (채널) - 고객에게 도달하는 경로
8. Cost Structure (비용 구조) - 고객 획득 비용, 유통 비용, 호스팅, 인력 등
9. Revenue Streams (수익원) - 수익 모델, 고객 생애 가치, 수익, 총 마진`,
		},
		CanvasBusinessModel: {
			kind:        CanvasBusinessModel,
			title:       "Business Model Canvas",
			description: "Business Model Canvas - 9 blocks structure",
			schema:      util.CreateSchema(BusinessModelCanvas{}),
			newValue:    func() any { return &BusinessModelCanvas{} },
			blocks: `1. Key Partners (핵심 파트너) - 핵심 파트너/공급업체는 누구인가요? 어떤 핵심 자원을 그들로부터 획득하나요?
2. Key Activities (핵심 활동) - 가치 제안을 위해 필요한 핵심 활동은 무엇인가요?
3. Key Resources (핵심 자원) - 가치 제안을 위해 필요한 핵심 자원은 무엇인가요?
4. Value Propositions (가치 제안) - 고객에게 제공하는 가치는 무엇인가요? 어떤 문제를 해결하나요?
5. Customer Relationships (고객 관계) - 각 고객 세그먼트가 기대하는 관계 유형은 무엇인가요?
6. Channels (채널) - 고객에게 어떻게 도달하고 가치를 전달하나요?
7. Customer Segments (고객 세그먼트) - 가장 중요한 고객은 누구인가요?
8. Cost Structure (비용 구조) - 비즈니스 모델에 내재된 가장 중요한 비용은 무엇인가요?
9. Revenue Streams (수익원) - 고객이 어떤 가치에 대해 비용을 지불하나요? 어떻게 지불하나요?`,
		},
	}

	for _, s := range specs {
		v, err := util.CompileSchema(util.RequireNonEmptyStrings(s.schema))
		if err != nil {
			panic(fmt.Sprintf("compile %s schema: %v", s.kind, err))
		}
		s.validator = v
	}

	return specs
}

// responseSchema returns the structured output request for the canvas.
func (s *canvasSpec) responseSchema() *model.ResponseSchema {
	return &model.ResponseSchema{
		Name:        string(s.kind),
		Description: s.description,
		Schema:      s.schema,
	}
}

// instruction builds the extraction instruction that replaces the user turn.
func (s *canvasSpec) instruction(userMessage string) string {
	return fmt.Sprintf(`사용자의 비즈니스 아이디어를 분석하여 %[1]s를 작성해주세요.

사용자 메시지: %[2]s

%[1]s의 9개 블록을 모두 채워주세요. **모든 내용은 반드시 한국어로 작성해주세요.**

%[3]s

**중요: 모든 필드의 내용은 반드시 한국어로 작성해야 합니다. 영어를 사용하지 마세요.**`, s.title, userMessage, s.blocks)
}

// decode validates raw structured output and renders the canvas payload.
func (s *canvasSpec) decode(raw string) (string, error) {
	if err := s.validator.ValidateJSON([]byte(raw)); err != nil {
		return "", &model.Error{Err: err, Message: fmt.Sprintf("invalid %s output", s.kind), Type: model.ErrorTypeBadPrompt}
	}

	v := s.newValue()
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return "", &model.Error{Err: err, Message: fmt.Sprintf("decode %s output", s.kind), Type: model.ErrorTypeBadPrompt}
	}

	return EncodeCanvas(s.kind, v)
}

// EncodeCanvas serializes a canvas as {"type": kind, "data": data}. Non-ASCII
// text is emitted verbatim.
func EncodeCanvas(kind CanvasKind, data any) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(CanvasPayload{Type: kind, Data: data}); err != nil {
		return "", fmt.Errorf("encode canvas: %w", err)
	}

	return strings.TrimRight(buf.String(), "\n"), nil
}
