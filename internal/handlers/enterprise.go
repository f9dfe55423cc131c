package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"genome-ai/internal/audit"
	"genome-ai/internal/logging"
	"genome-ai/internal/metrics"
	"genome-ai/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var defaultAgents = []string{"sales", "marketing", "finance", "operations", "support", "hr"}

// GetCompanyProfile returns the user's saved business profile
func (h *Handler) GetCompanyProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var record models.CompanyProfile
	if err := h.DB.Where("user_id = ?", userID).First(&record).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"profile": nil, "hasProfile": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": record.Profile, "hasProfile": true})
}

// SaveCompanyProfile upserts the user's business profile. Unlike report
// persistence this is the request's whole purpose, so a failed write is
// an error, not a shrug.
func (h *Handler) SaveCompanyProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Profile map[string]interface{} `json:"profile" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Profile is required"})
		return
	}

	var record models.CompanyProfile
	err := h.DB.Where("user_id = ?", userID).First(&record).Error
	if err != nil {
		record = models.CompanyProfile{UserID: userID, Profile: req.Profile}
		err = h.DB.Create(&record).Error
	} else {
		record.Profile = req.Profile
		err = h.DB.Save(&record).Error
	}
	if err != nil {
		logging.L().Error("Failed to save company profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile"})
		return
	}

	h.Audit.Record(userID, audit.ActionProfileSaved, "company_profile", fmt.Sprintf("%d", record.ID), nil)

	c.JSON(http.StatusOK, gin.H{"success": true, "profile": record.Profile})
}

// EnterpriseCommand orchestrates a CEO-level strategic objective into
// three strategy options with per-agent plans.
func (h *Handler) EnterpriseCommand(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Prompt string   `json:"prompt"`
		Agents []string `json:"agents"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Strategic prompt is required"})
		return
	}
	if len(req.Agents) == 0 {
		req.Agents = defaultAgents
	}

	var profile map[string]interface{}
	var record models.CompanyProfile
	if err := h.DB.Where("user_id = ?", userID).First(&record).Error; err == nil {
		profile = record.Profile
	}

	fullPrompt := fmt.Sprintf(`%s

CEO STRATEGIC OBJECTIVE:
%q

IMPORTANT:
- Only generate agent responses for the ACTIVE AGENTS listed above
- Base all recommendations on the COMPANY CONTEXT provided
- If company risk tolerance is "low", select conservative strategy
- If company risk tolerance is "high", select aggressive strategy
- Otherwise, select balanced strategy
- Make budget figures realistic based on company's disclosed budgets
- Ensure all KPIs are specific and measurable
- Include the parsedObjective, strategyOptions, executionPhases, and approvalItems in your response

Generate the comprehensive enterprise response JSON.`,
		buildOrchestrationPrompt(profile, req.Agents), req.Prompt)

	response, err := h.AI.GenerateJSON(c.Request.Context(), fullPrompt)
	if err != nil {
		h.respondGenerationError(c, err, "Failed to process enterprise command")
		return
	}

	// drop agent plans the caller did not activate
	if rawAgents, ok := response["agents"].([]interface{}); ok {
		active := make(map[string]bool, len(req.Agents))
		for _, a := range req.Agents {
			active[a] = true
		}
		filtered := make([]interface{}, 0, len(rawAgents))
		for _, raw := range rawAgents {
			if agent, ok := raw.(map[string]interface{}); ok {
				if name, _ := agent["agent"].(string); active[name] {
					filtered = append(filtered, agent)
				}
			}
		}
		response["agents"] = filtered
	}

	c.JSON(http.StatusOK, response)
}

// ExecuteStrategy persists a strategy snapshot, explodes its phases
// into tasks, and records the decision in the audit trail. Persistence
// problems are logged, never surfaced: the execution itself succeeded.
func (h *Handler) ExecuteStrategy(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload struct {
		Prompt            string                   `json:"prompt"`
		SelectedStrategy  string                   `json:"selectedStrategy"`
		StrategyDetails   map[string]interface{}   `json:"strategyDetails"`
		ApprovalItems     []map[string]interface{} `json:"approvalItems"`
		Agents            []map[string]interface{} `json:"agents"`
		TotalBudgetImpact string                   `json:"totalBudgetImpact"`
		HeadcountImpact   string                   `json:"headcountImpact"`
		ExecutionPhases   []map[string]interface{} `json:"executionPhases"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid execution payload"})
		return
	}

	strategyID := fmt.Sprintf("exec-%d", time.Now().UnixMilli())
	tasksCreated := 0
	savedToDatabase := false

	strategy := models.ExecutedStrategy{
		UserID:            userID,
		Prompt:            payload.Prompt,
		SelectedStrategy:  payload.SelectedStrategy,
		StrategyDetails:   payload.StrategyDetails,
		ApprovalItems:     payload.ApprovalItems,
		Agents:            payload.Agents,
		ExecutionPhases:   payload.ExecutionPhases,
		TotalBudgetImpact: payload.TotalBudgetImpact,
		HeadcountImpact:   payload.HeadcountImpact,
		Status:            "active",
		ExecutedAt:        time.Now(),
	}

	if err := h.DB.Create(&strategy).Error; err != nil {
		logging.L().Error("Failed to save executed strategy", zap.Error(err))
		// count the tasks the phases would have produced
		for _, phase := range payload.ExecutionPhases {
			if activities, ok := phase["activities"].([]interface{}); ok {
				tasksCreated += len(activities)
			}
		}
	} else {
		strategyID = fmt.Sprintf("%d", strategy.ID)
		savedToDatabase = true

		tasks := explodeTasks(userID, strategy.ID, payload.ExecutionPhases)
		if len(tasks) > 0 {
			if err := h.DB.Create(&tasks).Error; err != nil {
				logging.L().Error("Failed to create strategy tasks", zap.Error(err))
			} else {
				tasksCreated = len(tasks)
			}
		}

		h.Audit.Record(userID, audit.ActionStrategyExecuted, "strategy", strategyID, map[string]interface{}{
			"prompt":           payload.Prompt,
			"selectedStrategy": payload.SelectedStrategy,
			"totalBudget":      payload.TotalBudgetImpact,
			"approvalCount":    len(payload.ApprovalItems),
			"agentCount":       len(payload.Agents),
		})
		metrics.Get().ReportsGeneratedTotal.WithLabelValues("strategy").Inc()
	}

	message := "Strategy executed successfully (database tables not configured)"
	if savedToDatabase {
		message = "Strategy executed and saved to database"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         message,
		"strategyId":      strategyID,
		"tasksCreated":    tasksCreated,
		"savedToDatabase": savedToDatabase,
	})
}

// explodeTasks turns phase activities into one pending task per activity
func explodeTasks(userID, strategyID uint, phases []map[string]interface{}) []models.StrategyTask {
	var tasks []models.StrategyTask
	for _, phase := range phases {
		phaseNumber := intField(phase, "phase")
		phaseName, _ := phase["name"].(string)
		activities, _ := phase["activities"].([]interface{})
		for _, raw := range activities {
			activity, ok := raw.(string)
			if !ok || activity == "" {
				continue
			}
			tasks = append(tasks, models.StrategyTask{
				UserID:      userID,
				StrategyID:  strategyID,
				PhaseNumber: phaseNumber,
				PhaseName:   phaseName,
				Activity:    activity,
				Status:      models.TaskStatusPending,
			})
		}
	}
	return tasks
}

// GetExecutedStrategies returns the user's ten most recent executions
func (h *Handler) GetExecutedStrategies(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var strategies []models.ExecutedStrategy
	if err := h.DB.Where("user_id = ?", userID).Order("executed_at DESC").Limit(10).Find(&strategies).Error; err != nil {
		logging.L().Error("Failed to list strategies", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"strategies": []models.ExecutedStrategy{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}

// GetStrategyTasks lists the user's tasks, optionally filtered by strategy
func (h *Handler) GetStrategyTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	query := h.DB.Where("user_id = ?", userID)
	if strategyID := c.Query("strategyId"); strategyID != "" {
		query = query.Where("strategy_id = ?", strategyID)
	}

	var tasks []models.StrategyTask
	if err := query.Order("phase_number ASC, id ASC").Find(&tasks).Error; err != nil {
		logging.L().Error("Failed to list strategy tasks", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"tasks": []models.StrategyTask{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// UpdateStrategyTask moves a task through pending / in_progress /
// completed. The stored row is the source of truth the dashboard reads.
func (h *Handler) UpdateStrategyTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidTaskStatus(req.Status) {
		c.JSON(http.StatusBadRequest, StandardResponse{
			Success: false,
			Error:   "Status must be one of: pending, in_progress, completed",
			Code:    "INVALID_STATUS",
		})
		return
	}

	var task models.StrategyTask
	if err := h.DB.Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&task).Error; err != nil {
		c.JSON(http.StatusNotFound, StandardResponse{
			Success: false,
			Error:   "Task not found",
			Code:    "TASK_NOT_FOUND",
		})
		return
	}

	task.Status = req.Status
	if err := h.DB.Save(&task).Error; err != nil {
		logging.L().Error("Failed to update task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, StandardResponse{
			Success: false,
			Error:   "Failed to update task",
			Code:    "DATABASE_ERROR",
		})
		return
	}

	h.Audit.Record(userID, audit.ActionTaskUpdated, "strategy_task", c.Param("id"), map[string]interface{}{
		"status": req.Status,
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "task": task})
}

// buildOrchestrationPrompt assembles the CEO orchestration system
// context from the stored company profile and the active agent list.
func buildOrchestrationPrompt(profile map[string]interface{}, agents []string) string {
	var companyContext string
	if profile != nil {
		companyContext = fmt.Sprintf(`
COMPANY CONTEXT:
- Company: %s
- Industry: %s
- Type: %s
- Description: %s
- Products/Services: %s
- Customer Segments: %s
- Annual Revenue: %s
- Employee Count: %s
- Operational Costs: %s
- Marketing Budget: %s
- Sales Budget: %s
- Business Goals: %s
- Current Challenges: %s
- Competitors: %s
- Risk Tolerance: %s
`,
			profileString(profile, "companyName", "Enterprise Company"),
			profileString(profile, "industry", "Other"),
			profileString(profile, "companyType", "Not specified"),
			profileString(profile, "description", "Not provided"),
			profileList(profile, "products", ", ", "Not specified"),
			profileList(profile, "customerSegments", ", ", "Not specified"),
			profileString(profile, "annualRevenue", "Not disclosed"),
			profileString(profile, "employeeCount", "Not specified"),
			profileString(profile, "operationalCosts", "Not specified"),
			profileString(profile, "marketingBudget", "Not specified"),
			profileString(profile, "salesBudget", "Not specified"),
			profileList(profile, "goals", "; ", "Not specified"),
			profileList(profile, "challenges", "; ", "Not specified"),
			profileList(profile, "competitors", ", ", "Not specified"),
			strings.ToUpper(profileString(profile, "riskTolerance", "medium")))
	} else {
		companyContext = `
COMPANY CONTEXT:
No company profile configured. Generate generic enterprise responses.
`
	}

	agentLines := make([]string, len(agents))
	for i, a := range agents {
		agentLines[i] = "- " + a
	}
	agentInstructions := fmt.Sprintf(`
ACTIVE AGENTS (only generate responses for these):
%s

Agent definitions:
- sales: Sales Agent - Pipeline, leads, pricing, sales enablement
- marketing: Marketing Agent - Campaigns, messaging, channels, attribution
- finance: Finance Agent - Budgets, forecasts, ROI, scenarios
- operations: Operations Agent - Processes, SLAs, capacity, workflows
- support: Customer Support Agent - Tickets, complaints, churn, CX
- hr: HR Agent - Hiring, workforce, performance, compliance
`, strings.Join(agentLines, "\n"))

	return fmt.Sprintf(`You are a CEO Orchestration AI for an enterprise. You receive strategic prompts from the CEO and coordinate responses from functional agents.

%s

%s

Given the CEO's strategic objective, generate THREE strategy options (Conservative/Safe, Balanced, Aggressive) and a comprehensive enterprise response.

STEP 1: Parse the CEO's objective into structured goals:
- Target KPI (what metric to improve)
- Target Value (specific number/percentage)
- Constraints (limitations or conditions)
- Timeframe (when to achieve)
- Risk tolerance level

STEP 2: Generate THREE strategy approaches:
1. CONSERVATIVE (Safe): Lower risk, slower timeline, more certain outcomes
2. BALANCED: Moderate risk, reasonable timeline, good expected outcomes
3. AGGRESSIVE: Higher risk, faster timeline, potentially higher rewards

STEP 3: For the SELECTED strategy (based on company's risk tolerance), provide detailed agent plans.

Each agent response should include:
- plan: Specific execution plan (2-3 sentences) tailored to company context
- kpis: 3 measurable KPIs with specific targets
- budget: Budget allocation/impact with dollar figures
- risks: 1-2 key risks specific to this strategy
- dependencies: 1-2 cross-functional dependencies

Return JSON in this exact format:
{
  "parsedObjective": {
    "targetKPI": "Metric name",
    "targetValue": "8%% improvement",
    "constraints": ["Constraint 1", "Constraint 2"],
    "timeframe": "Q1 2024",
    "riskLevel": "medium"
  },
  "strategyOptions": [
    {
      "type": "conservative",
      "name": "Safe Approach",
      "summary": "Brief description of conservative strategy...",
      "expectedOutcome": "5%% improvement",
      "timeline": "9 months",
      "budgetRange": "$2M - $3M",
      "riskLevel": "Low",
      "confidence": "90%%"
    },
    {
      "type": "balanced",
      "name": "Balanced Approach",
      "summary": "Brief description of balanced strategy...",
      "expectedOutcome": "8%% improvement",
      "timeline": "6 months",
      "budgetRange": "$4M - $6M",
      "riskLevel": "Medium",
      "confidence": "75%%"
    },
    {
      "type": "aggressive",
      "name": "Growth Push",
      "summary": "Brief description of aggressive strategy...",
      "expectedOutcome": "12%% improvement",
      "timeline": "4 months",
      "budgetRange": "$8M - $12M",
      "riskLevel": "High",
      "confidence": "55%%"
    }
  ],
  "selectedStrategy": "balanced",
  "strategicSummary": "Overall strategic approach based on company context and selected strategy...",
  "tradeOffs": ["Trade-off 1", "Trade-off 2", "Trade-off 3"],
  "agents": [
    {
      "agent": "sales",
      "status": "complete",
      "plan": "Specific sales plan tailored to company...",
      "kpis": ["KPI 1 with target", "KPI 2 with target", "KPI 3 with target"],
      "budget": "$X allocation",
      "risks": ["Risk 1"],
      "dependencies": ["Depends on marketing"]
    }
  ],
  "totalBudgetImpact": "$X.XM",
  "headcountImpact": "+X FTEs",
  "timeline": "X months",
  "overallRisks": ["Enterprise risk 1", "Enterprise risk 2", "Enterprise risk 3"],
  "measurementPlan": ["KPI 1", "KPI 2", "KPI 3", "KPI 4", "KPI 5", "KPI 6"],
  "executionPhases": [
    {
      "phase": 1,
      "name": "Foundation",
      "duration": "Month 1-2",
      "activities": ["Activity 1", "Activity 2"],
      "milestones": ["Milestone 1"]
    },
    {
      "phase": 2,
      "name": "Execution",
      "duration": "Month 3-4",
      "activities": ["Activity 1", "Activity 2"],
      "milestones": ["Milestone 1"]
    },
    {
      "phase": 3,
      "name": "Optimization",
      "duration": "Month 5-6",
      "activities": ["Activity 1", "Activity 2"],
      "milestones": ["Milestone 1"]
    }
  ],
  "approvalItems": [
    {
      "id": "budget",
      "title": "Budget Approval",
      "description": "Approve total budget of $X.XM",
      "department": "Finance",
      "priority": "high"
    },
    {
      "id": "hiring",
      "title": "Hiring Authorization",
      "description": "Authorize hiring of X new FTEs",
      "department": "HR",
      "priority": "medium"
    }
  ]
}`, companyContext, agentInstructions)
}

func profileString(profile map[string]interface{}, key, def string) string {
	if s, ok := profile[key].(string); ok && s != "" {
		return s
	}
	return def
}

func profileList(profile map[string]interface{}, key, sep, def string) string {
	raw, ok := profile[key].([]interface{})
	if !ok || len(raw) == 0 {
		// profiles built server-side store []string
		if list, ok := profile[key].([]string); ok && len(list) > 0 {
			return strings.Join(list, sep)
		}
		return def
	}
	items := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			items = append(items, s)
		}
	}
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, sep)
}
