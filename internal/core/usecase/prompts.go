package usecase

import (
	"fmt"
	"strings"

	"github.com/iamdbstjd/DC-TermProject3/internal/config"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

const maxPromptSnippet = 4000

func promptSnippet(text string) string {
	if len(text) > maxPromptSnippet {
		return text[:maxPromptSnippet]
	}
	return text
}

func buildClassificationPrompt(rules []config.DocTypeRule, text string) string {
	var labels strings.Builder
	for _, rule := range rules {
		labels.WriteString(fmt.Sprintf("- %s: %s\n", rule.Code, rule.Name))
	}

	return fmt.Sprintf(`당신은 한국 공공문서 분류 전문가입니다.
아래 문서를 다음 유형 중 하나로 분류하세요.

사용 가능한 문서 유형:
%s
다음 키만 가진 JSON 객체로만 응답하세요:
doc_type (위 목록의 코드 중 하나), confidence (0~1 숫자).
다른 키, 마크다운, 설명 금지.

=== 문서 텍스트 ===
%s`, labels.String(), promptSnippet(text))
}

func buildExtractionPrompt(docType domain.DocType, docTypeName, text string) string {
	kind := string(docType)
	if docTypeName != "" {
		kind = docTypeName
	}

	return fmt.Sprintf(`당신은 한국 공공문서 정보 추출 전문가입니다.
문서에서 핵심 정보를 추출하세요.

다음 키만 가진 JSON 객체로만 응답하세요:
{
  "amount": "납부 금액 (예: 50,000원, 없으면 null)",
  "due_date": "납부/마감 기한 (YYYY-MM-DD, 없으면 null)",
  "organization": "문서를 보낸 기관명 (없으면 null)",
  "penalty_risk": "NONE/LOW/MEDIUM/HIGH",
  "contact": "문의 연락처 (없으면 null)",
  "account_number": "납부 계좌번호 또는 납부번호 (없으면 null)"
}

penalty_risk 기준:
- NONE: 안내문, 불이익 없음
- LOW: 기한을 넘겨도 큰 불이익 없음
- MEDIUM: 연체료/과태료 발생 가능
- HIGH: 독촉/체납/압류 등 즉시 조치 필요

문서 유형: %s

=== 문서 텍스트 ===
%s`, kind, promptSnippet(text))
}

func buildSimplifyPrompt(policy config.Policy, cls domain.ClassificationResult, er domain.ExtractionResult, steps []domain.ActionStep) string {
	var stepLines strings.Builder
	for _, step := range steps {
		stepLines.WriteString(fmt.Sprintf("%d. [%s] %s\n", step.Order, step.Kind, step.Description))
	}

	var banned strings.Builder
	for i, term := range policy.JargonBlocklist {
		if i > 0 {
			banned.WriteString(", ")
		}
		banned.WriteString(term)
	}

	amountText := "없음"
	if v, ok := er.Get(domain.FieldAmount); ok {
		amountText = v.Text
	}
	dueText := "없음"
	if v, ok := er.Get(domain.FieldDueDate); ok {
		dueText = v.Text
	}
	orgText := "알 수 없음"
	if org, ok := er.Organization(); ok {
		orgText = org
	}

	return fmt.Sprintf(`당신은 어르신과 디지털에 익숙하지 않은 분들을 위한 안내원입니다.
아래 할 일 목록을 아주 쉬운 말로 다시 쓰세요.

작성 규칙:
1. 초등학교 3학년도 이해할 수 있는 말만 사용
2. 한 줄은 %d자 이내
3. 다음 단어 사용 금지: %s
4. steps_easy는 정확히 %d줄, 할 일 목록과 같은 순서

다음 키만 가진 JSON 객체로만 응답하세요:
{"summary_one_line": "한 줄 핵심 결론", "steps_easy": ["첫 번째 할 일", "..."]}

문서 종류: %s
내야 할 돈: %s
마감 기한: %s
보낸 곳: %s

할 일 목록:
%s`, policy.MaxLineRunes, banned.String(), len(steps), cls.DocTypeName, amountText, dueText, orgText, stepLines.String())
}
