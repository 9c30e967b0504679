package app

import "fmt"

// defaultInstruction is used when the caller supplies no prompt of their own.
const defaultInstruction = "Provide a general analysis of this document."

// buildAnalysisPrompt renders the fixed legal-analysis template. The template
// is deliberately rigid so the model returns the same section structure for
// every document.
func buildAnalysisPrompt(documentText, instruction string) string {
	return fmt.Sprintf(`
**Role:** You are an expert legal analyst AI specializing in **Indian Law**.
**Task:** Analyze the provided legal document from the perspective of **Indian law**.
---
**User's Specific Request:** "%s"
---
**Document Text:**
%s
---
**Your Structured Analysis (Indian Legal Context):**
### **1. Summary**
* **Potential Risks:** *(Identify clauses on payment, penalties, indemnification)*
* **General Advice:** *(e.g., "Consult a lawyer practicing in India.")*
### **2. Key Details at a Glance**
| Detail | Information Found (with Clause Reference) |
| :--- | :--- |
| **Governing Law** | *(e.g., Laws of India, Jurisdiction in Delhi (Clause 15.1))* |
| **Contract Term** | *(e.g., 24 months from effective date (Section 3))* |
| **Payment Amount**| *(e.g., ₹50,000 INR per month (Annexure A))* |
| **Notice Period** | *(e.g., 60 days for termination (Clause 12.2))* |
### **3. Key Parties & Their Roles**
* **Party A:** *(Identify party and role.)*
* **Party B:** *(Identify party and role.)*
### **4. Key Clauses & Their Implications (under Indian Law)**
* **[Clause Name]:** *(Explain the meaning and impact. Cite the source.)*
### **5. Potential Risks & Red Flags 🚩 (Indian Context)**
* **Financial Risk:** *(Identify clauses on payment, penalties. Cite the source.)*
* **Legal/Liability Risk:** *(Identify clauses on indemnification, liability. Cite the source.)*
### **6. Dispute Resolution (Arbitration / Court Jurisdiction)**
* *(Explain how disputes are resolved. Cite Indian law.)*
### **7. Confidentiality & Intellectual Property**
* *(Highlight clauses on confidentiality and IP ownership.)*
### **8. Compliance & Regulatory Requirements (Indian Laws)**
* *(Note compliance obligations with Indian laws.)*
### **9. Actionable Next Steps (Prioritized)**
1.  **Immediate Action:** *(Suggest the most critical next step.)*
2.  **Recommendation:** *(Suggest an important action.)*
3.  **General Advice:** *(e.g., "Consult a lawyer practicing in India.")*
`, instruction, documentText)
}

// buildQAPrompt renders the follow-up question template. The answer must be
// grounded in the supplied text only, so the document is inlined verbatim.
func buildQAPrompt(documentText, question string) string {
	return fmt.Sprintf(`
**Context:** You are an AI assistant answering questions about the following legal document.
**Document Text:**
---
%s
---
**User's Question:** "%s"
**Your Answer:**
`, documentText, question)
}
