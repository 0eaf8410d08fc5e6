package chat

var agentDisplayNames = map[string]string{
	"tutor_orchestrator": "Tutor Orchestrator",
	"math_specialist":    "Math Specialist",
	"physics_specialist": "Physics Specialist",
}

// DisplayName maps a backend agent key to its label. Unknown keys are
// returned unchanged.
func DisplayName(agent string) string {
	if name, ok := agentDisplayNames[agent]; ok {
		return name
	}
	return agent
}
