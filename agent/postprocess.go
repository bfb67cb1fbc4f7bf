package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/sherpa/model"
)

const disclaimerText = "**⚠️ 면책 조항:** 이 내용은 법률 자문이 아니며, 참고용으로만 사용해야 합니다. 실제 계약 체결 시 반드시 변호사의 검토를 받으시기 바랍니다."

// DisclaimerSuffix is appended to legal output lacking a disclaimer.
const DisclaimerSuffix = "\n\n---\n\n" + disclaimerText

// disclaimerMarkers identify content that already carries a disclaimer.
var disclaimerMarkers = []string{"면책 조항", "면책조항"}

// HasDisclaimer reports whether content already contains a disclaimer marker.
func HasDisclaimer(content string) bool {
	for _, m := range disclaimerMarkers {
		if strings.Contains(content, m) {
			return true
		}
	}

	return false
}

// ApplyDisclaimer appends DisclaimerSuffix unless content already has one.
func ApplyDisclaimer(content string) string {
	if HasDisclaimer(content) {
		return content
	}

	return content + DisclaimerSuffix
}

// QuotaExceededMessage is shown when the model provider rejects a call for
// quota or rate limit reasons.
const QuotaExceededMessage = `⚠️ **API 할당량 초과**

현재 LLM API의 할당량을 초과했습니다.

**해결 방법:**
1. 잠시 후 다시 시도해주세요 (약 1분 대기)
2. 모델 제공사의 콘솔에서 사용량과 할당량을 확인해주세요
3. 필요시 유료 플랜으로 업그레이드를 고려해주세요

**대안:**
- 다른 에이전트를 사용해보세요
- 잠시 후 다시 시도해주세요

불편을 드려 죄송합니다.`

// ErrorContent converts a generation failure into the user-visible reply.
func ErrorContent(err error) string {
	if model.IsQuota(err) {
		return QuotaExceededMessage
	}

	return fmt.Sprintf("⚠️ **오류가 발생했습니다**\n\n%s\n\n잠시 후 다시 시도해주세요.", err)
}
