package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "rm"

	// DashboardModulePrefix 看板模块
	DashboardModulePrefix = "dashboard"
	// SessionModulePrefix 会话模块
	SessionModulePrefix = "session"

	// EntityStats 统计实体
	EntityStats = "stats"
	// EntityContext 会话上下文实体
	EntityContext = "ctx"

	// KeyDashboardStats 看板统计缓存 (STRING, JSON)
	// 格式: rm:dashboard:stats
	KeyDashboardStats = AppPrefix + ":" + DashboardModulePrefix + ":" + EntityStats

	// KeyQuickStats 首页快速统计缓存 (STRING, JSON)
	// 格式: rm:dashboard:stats:quick
	KeyQuickStats = KeyDashboardStats + ":quick"

	// KeySessionContext 会话上下文 (STRING, JSON)
	// 格式: rm:session:ctx:{sessionID}
	KeySessionContext = AppPrefix + ":" + SessionModulePrefix + ":" + EntityContext + ":%s"
)
