package analyzer

import "fmt"

const analysisPromptTemplate = `
You are an expert HR recruitment assistant. Your task is to analyze a candidate's resume against a job description with extreme accuracy.

**Job Description:**
---
%s
---

**Candidate's Resume:**
---
%s
---

Based on the analysis, provide the following information in a single, valid JSON object ONLY. Do not add any text, explanations, or markdown formatting before or after the JSON object.

The JSON object must have these exact keys:
- "relevance_score": An integer from 0 to 100 on how well the resume matches the job description.
- "fit_verdict": A string which can only be one of three values: "High", "Medium", or "Low".
- "summary": A concise paragraph summarizing the candidate's strengths and weaknesses for this specific role.
- "personalized_feedback": Constructive feedback for the candidate on how to improve their resume for this type of role. Be specific and encouraging.
- "missing_skills": A list of strings, where each string is a key skill, certification, or experience from the job description that is missing or not clearly stated in the resume.
`

const titlePromptTemplate = `
You are an expert HR assistant. Extract ONLY the job title from the following job description. Return just the job title as a plain string, no extra text, no formatting, no explanations.
---
%s
---
`

// BuildAnalysisPrompt 原样嵌入岗位描述和简历文本
func BuildAnalysisPrompt(jobDescription, resumeText string) string {
	return fmt.Sprintf(analysisPromptTemplate, jobDescription, resumeText)
}

// BuildTitlePrompt 构建标题提取提示词
func BuildTitlePrompt(jobDescription string) string {
	return fmt.Sprintf(titlePromptTemplate, jobDescription)
}
