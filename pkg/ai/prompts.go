package ai

const CitationSystemPrompt = "You are a citation expert helping improve encyclopedia articles with diverse, reliable sources."

const RewriteSystemPrompt = "You are an editor helping rewrite encyclopedia content to be more neutral and well-cited."

const ExplanationSystemPrompt = "You are an expert explaining citation analysis and recommendations in clear, actionable terms."

// CitationPrompt takes, in order: title, citation count, source
// concentration, top domain, overall diversity, present categories,
// detected issues and current citations.
const CitationPrompt = `
# Task Context
Analyze this encyclopedia article and suggest 5-10 new high-quality citations to improve diversity and reliability.

# Background Data
Article Title: %s

Current Citation Analysis:
- Total citations: %d
- Source concentration: %s
- Top domain: %s
- Diversity score: %s
- Source types present: %s

Issues Detected:
%s

Current Citations:
%s

# Detailed Task Description & Rules
Suggest citations that:
1. Come from diverse, high-reliability sources (academic, government, reputable news)
2. Fill gaps in source type diversity
3. Provide different viewpoints on the topic
4. Are recent and relevant

- Every url must be an absolute http or https URL.
- source_type must be one of academic, government, news, ngo.
- reliability_score is your estimate between 0.0 and 1.0.

# Output Formatting
Return a JSON object with this structure:
{
  "suggestions": [
    {
      "url": "https://example.com/source",
      "title": "Source Title",
      "source_type": "academic|government|news|ngo",
      "reason": "Why this source improves diversity/reliability",
      "reliability_score": 0.0,
      "recency": "2024 or recent"
    }
  ]
}
`

// RewritePrompt takes title, source concentration, cluster risk and the
// article excerpt.
const RewritePrompt = `
# Task Context
Rewrite specific paragraphs from this encyclopedia article to be more neutral and better cited.

# Background Data
Article Title: %s

Bias Analysis:
- Source concentration: %s
- Single cluster risk: %s

Article Content (excerpt):
%s

# Detailed Task Description & Rules
Identify 2-3 paragraphs that:
1. Show ideological bias or loaded language
2. Lack proper citations
3. Could benefit from more neutral wording

For each paragraph provide the original text, a rewritten version that is more neutral and better cited, and an explanation of the changes.

# Output Formatting
Return a JSON object with this structure:
{
  "rewrites": [
    {
      "original": "original paragraph text",
      "rewritten": "rewritten paragraph text",
      "explanation": "why changes were made",
      "suggested_citations": ["url1", "url2"]
    }
  ]
}
`

// ExplanationPrompt takes title, overall quality, source concentration, top
// domain, recommendations and the number of suggested citations.
const ExplanationPrompt = `
Explain the citation analysis and recommendations for this encyclopedia article in clear, actionable terms.

Article: %s

Key Findings:
- Overall quality: %s
- Source concentration: %s
- Top domain: %s

Recommendations:
%s

Suggested Citations: %d

Provide a clear explanation that:
1. Summarizes the main issues found
2. Explains why they matter (bias, reliability, diversity)
3. Describes how the suggested citations address these issues
4. Makes it easy for editors to understand and act on

Write in a professional but accessible tone, suitable for article editors.
`
