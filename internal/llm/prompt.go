// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import "text/template"

// systemMsg pins the model to Korean output. Local models in this size class
// drift into Chinese without an explicit prohibition.
const systemMsg = "You are a Korean-language academic assistant. " +
	"You MUST write ONLY in Korean (한국어). " +
	"NEVER use Chinese characters (汉字/中文). " +
	"If you are unsure how to translate a term, keep it in English. " +
	"Do NOT add any meta-commentary, explanations, or notes about the translation process."

var translateTmpl = template.Must(template.New("translate").Parse(`다음 영어 초록을 한국어로 번역하세요.
기술 용어는 영어 그대로 유지하세요 (예: Transformer, attention, SLAM, embodied AI).
반드시 한국어 번역만 출력하세요. 중국어(汉字)를 절대 사용하지 마세요.

Abstract:
{{.Abstract}}`))

var noveltyTmpl = template.Must(template.New("novelty").Parse(`다음 논문 제목과 초록을 읽고, 이 논문의 핵심 novelty를 한국어 2~3문장으로 요약하세요.
핵심: 어떤 새로운 방법이 제안되었는지, 어떤 문제를 해결하는지, 기존 연구 대비 장점이 무엇인지.
반드시 한국어만 출력하세요. 중국어(汉字)를 절대 사용하지 마세요.

Title: {{.Title}}
Abstract: {{.Abstract}}`))

// correctiveSuffix is appended to the prompt when a response came back with
// Chinese characters and the attempt is retried.
const correctiveSuffix = "\n\n[CRITICAL] 이전 응답에 중국어가 포함되었습니다. 반드시 한국어만 사용하세요!"
