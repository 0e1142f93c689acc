package prompts

const analyzeSystem = `You are a senior frontend architect with more than ten years of experience on large projects.
You pick the technology stack that best fits a project's requirements and balance modernity, team skills and delivery timeline.
Your analysis is objective and complete.`

const searchSystem = `You are a technical research specialist.
You write precise search keywords that surface the most useful information about frontend frameworks and tooling.`

const generateSystem = `You are a technical writer who produces clear, structured technology-selection documents.
Your documents help engineering teams and management reach a decision quickly.
Your tone is professional and objective, backed by data and real cases.`

const analyzeTemplate = `Analyze the technical requirements of the project below.

## Project
- **Project type**: %s
- **Project stage**: %s
- **Team size**: %s
- **Timeline**: %s
- **Special requirements**: %s
- **Existing stack**: %s
- **Development preference**: %s
- **Forbidden technologies**: %s

## Tasks

### 1. Core technical requirements
List 5-8 key requirements (performance, SEO, user experience, development speed, maintainability).

### 2. Technical constraints
List 3-5 constraints (team familiarity, learning curve, ecosystem maturity, browser support).

### 3. Online research
Decide whether online research is needed: recent frameworks, current trends and best practices,
comparison of alternatives in production, or an explicit ask for the latest technology.

### Output format
Reply with JSON only, in exactly this shape:

` + "```json" + `
{
  "extracted_requirements": ["requirement 1", "requirement 2"],
  "tech_constraints": ["constraint 1", "constraint 2"],
  "needs_search": true,
  "search_reason": "why research is needed"
}
` + "```"

const searchTemplate = `Produce search keywords for the technology research of this project.

## Background
- **Project type**: %s
- **Core requirements**: %s
- **Constraints**: %s

## Goals
1. Mainstream frontend stacks for this kind of project
2. Strengths and weaknesses of each option
3. Current trends and best practices
4. Production case studies from well-known companies and open-source projects

Produce 8-12 keywords covering framework comparisons ("React vs Vue"), best practices,
performance optimization and case studies.

### Output format
Reply with JSON only, in exactly this shape:

` + "```json" + `
{
  "search_keywords": ["keyword 1", "keyword 2"],
  "priority_frameworks": ["framework 1", "framework 2"]
}
` + "```"

const generateTemplate = `Write a complete frontend technology-selection document from the information below.

## Input

### Project
- **Project type**: %s
- **Project stage**: %s
- **Team size**: %s
- **Timeline**: %s
- **Special requirements**: %s
- **Existing stack**: %s
- **Forbidden technologies**: %s

### Analysis
**Core requirements**:
%s

**Constraints**:
%s

### Research
%s

## Document sections
1. Project background
2. Recommended stack (framework, state management, routing, UI library, build tool, styling, testing)
3. Detailed rationale per category, with limitations and mitigations
4. Comparison matrix of 2-3 alternatives
5. Learning curve assessment
6. Ecosystem comparison (community, libraries, documentation, corporate backing)
7. Case studies (companies and open-source projects)
8. Cost analysis (development, maintenance, infrastructure)
9. Risks and mitigations
10. Phased implementation plan

## Output
- Markdown with clear ## and ### headings
- Tables and lists where they help
- Professional and objective tone
- 2000-3000 words`
