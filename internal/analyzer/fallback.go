package analyzer

import "math/rand/v2"

const (
	fallbackScoreMin = 65
	fallbackScoreMax = 95
)

var fallbackSummaries = []string{
	"This candidate demonstrates strong technical skills and relevant experience. The resume shows excellent alignment with job requirements, with particular strengths in problem-solving and technical implementation.",
	"The applicant has solid experience and shows good potential for the role. Strong educational background with practical experience in relevant technologies and methodologies.",
	"Candidate shows promising technical abilities with hands-on experience. Good foundation in core competencies required for this position with room for growth.",
	"Well-rounded professional with diverse experience across multiple domains. Demonstrates adaptability and continuous learning mindset with relevant skill set.",
	"Strong candidate with proven track record in similar roles. Excellent technical expertise combined with good communication and collaboration skills.",
}

var fallbackFeedbacks = []string{
	"Consider highlighting specific project outcomes and quantifiable achievements. Adding more details about leadership experience and cross-functional collaboration would strengthen the application.",
	"Recommend emphasizing measurable results from past projects. Include more information about technical certifications and continuous learning initiatives.",
	"Focus on demonstrating problem-solving abilities with concrete examples. Consider adding information about mentoring experience and team contributions.",
	"Strengthen the resume by including specific technologies used and their impact. Add details about process improvements and innovation contributions.",
	"Enhance the application by showcasing client interaction experience and business impact. Include information about training and knowledge sharing activities.",
}

var fallbackMissingSkills = [][]string{
	{"Advanced Analytics", "Team Leadership", "Project Management"},
	{"Cloud Architecture", "DevOps Practices", "Agile Methodologies"},
	{"Machine Learning", "Data Visualization", "Statistical Analysis"},
	{"System Design", "Performance Optimization", "Security Best Practices"},
	{"Strategic Planning", "Stakeholder Management", "Business Analysis"},
	{"Quality Assurance", "Testing Frameworks", "Continuous Integration"},
}

// fallbackResult 配额耗尽时的替代结果，分数落在 [65,95]
func fallbackResult(intn func(int) int) *Result {
	if intn == nil {
		intn = rand.IntN
	}
	score := fallbackScoreMin + intn(fallbackScoreMax-fallbackScoreMin+1)
	skills := fallbackMissingSkills[intn(len(fallbackMissingSkills))]

	return &Result{
		RelevanceScore:       score,
		FitVerdict:           VerdictForScore(score),
		Summary:              fallbackSummaries[intn(len(fallbackSummaries))],
		PersonalizedFeedback: fallbackFeedbacks[intn(len(fallbackFeedbacks))],
		MissingSkills:        append([]string(nil), skills...),
		Fallback:             true,
	}
}
