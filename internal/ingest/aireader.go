package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatta-ai/chatta/internal/model"
)

// reformatMaxTokens bounds one page's markdown rendition. Datasheet pages
// compress well below this; the headroom covers table-heavy pages.
const reformatMaxTokens = 5000

// reformatSystemPrompt walks the model through restructuring one page of
// messy extracted text into sectioned Markdown. The worked example anchors
// the section names the markdown splitter relies on.
const reformatSystemPrompt = `
You will receive a Messy Information. Please process them step-by-step using Chain-of-Thought reasoning and convert them into Markdown format. Categorize the data and format it accordingly without mentioning any "steps" in the final output. The final output should only include the converted Markdown data, structured into sections like "Contact Information," "Specifications," and "Order Information."

Follow these guidelines:
    1. Identify the contact details and format them as a Markdown list under "Contact Information."
    2. Organize the product specifications into a Markdown table under "Specifications."
    3. List the product's key features as bullet points under "Features."
    4. Provide the order information, including the model number and description, under "Order Information."

Ensure that the output is clean and well-structured in Markdown, without any references to steps or the process followed.

Example Output:

1. Step 1: Organize the Contact Information
    - This section contains the headquarters and branch office contact details, which I will format into lists.

    The Markdown list format is:
    ` + "```markdown" + `
    ## Contact Information
    - **Headquarters:**
      - Address: 5F., No. 237, Sec. 1, Datong Rd., Xizhi Dist., New Taipei City 221, Taiwan
      - Phone: +886-2-77033000
      - Email: [sales@example.com](mailto:sales@example.com)

    ### Branch Offices:
    - **USA:** usasales@example.com, +1-510-770-9421
    - **Europe:** eusales@example.com, +31-40-3045-400
    ` + "```" + `

2. Step 2: Organize the Product Specifications
    - Here, I will extract and organize all technical specifications and place them in a table.

    ` + "```markdown" + `
    ## Specifications

    | **Feature**                 | **Details**                                 |
    |-----------------------------|---------------------------------------------|
    | **Form Factor**              | M.2 3042-B-M                                |
    | **Input Interface**          | PCI Express 2.0                             |
    | **Output Interface**         | SATA III                                    |
    | **Dimensions**               | 30 x 42 x 13.8 mm                           |
    | **Temperature Range**        | Operation: 0°C ~ +70°C                      |
    ` + "```" + `

3. Step 3: List Product Features
    - Next, I will list the product features as bullet points.

    ` + "```markdown" + `
    ## Features
    - M.2 3042 to four SATA III Module.
    - PCI Express 2.0 to four SATA III ports.
    - Supports AHCI, Port Multiplier.
    - Supports Native Command Queuing.
    - 3-year warranty.
    ` + "```" + `

4. Step 4: Order Information
    - Finally, I will provide the order information, including the model number and product description.

    ` + "```markdown" + `
    ## Order Information
    - **Model Number:** EGPS-3401-C1
    - **Description:** M.2 to four SATA III Module, SATAIII 7pin Male
    ` + "```" + `
---

This Chain-of-Thought approach will show each step of the thought process, guiding the model to gradually organize and format the data.
`

// Reformatter normalizes one page of messy extracted text into Markdown.
type Reformatter interface {
	Reformat(ctx context.Context, pageText string) (string, error)
}

// markdownReformatter drives a text generator with the Chain-of-Thought
// prompt, one call per page.
type markdownReformatter struct {
	generator model.TextGenerator
}

// NewMarkdownReformatter creates a Reformatter backed by the given generator.
func NewMarkdownReformatter(generator model.TextGenerator) Reformatter {
	return &markdownReformatter{generator: generator}
}

// Reformat converts pageText into sectioned Markdown. A failed generation
// fails the page; the caller decides whether the batch survives.
func (r *markdownReformatter) Reformat(ctx context.Context, pageText string) (string, error) {
	prompt := []model.Message{
		{Role: model.RoleSystem, Content: reformatSystemPrompt},
		{Role: model.RoleUser, Content: "Messy Information:\n" + pageText},
	}

	var sb strings.Builder
	var genErr error
	r.generator.Run(ctx, prompt, reformatMaxTokens, func(f model.Fragment) {
		if f.Err != nil {
			genErr = f.Err
			return
		}
		sb.WriteString(f.Text)
	})
	if genErr != nil {
		return "", fmt.Errorf("reformatting page: %w", genErr)
	}
	return sb.String(), nil
}
