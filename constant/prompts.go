package constant

// 提示词模板 ID
const (
	PromptIDWeightEvaluation = "weight_evaluation"
	PromptIDImpression       = "impression"
	PromptIDAffection        = "affection"
)

// 提示词模板变量名，模板中以 {name} 形式引用
const (
	PromptVarMessage            = "message"
	PromptVarContext            = "context"
	PromptVarExistingImpression = "existing_impression"
	PromptVarHistoryContext     = "history_context"
	PromptVarAffectionScore     = "affection_score"
	PromptVarAffectionLevel     = "affection_level"
)

// 系统提示词
const (
	WeightSystemPrompt     = "你是一个对话价值评估助手，只按要求的格式输出，不输出多余内容。"
	ImpressionSystemPrompt = "你是一个用户画像分析助手，擅长从对话中提炼用户的性格特征和行为模式。"
	AffectionSystemPrompt  = "你是一个语义情感分析助手，只按要求的格式输出。"
)

// DefaultWeightEvaluationPrompt 默认权重评估模板
const DefaultWeightEvaluationPrompt = `请结合历史对话评估当前消息对了解该用户的价值，给出 0-100 的权重分数。
评分参考：
- 70-100：个人经历、兴趣爱好、价值观、情绪表达、独特观点
- 40-69：日常交流、一般提问、客观陈述
- 0-39：问候、客套、表情或无实质内容

历史对话：
{context}

当前消息：
{message}

只返回一行：WEIGHT_SCORE: 分数; WEIGHT_LEVEL: high/medium/low; REASON: 原因`

// DefaultImpressionTemplate 默认印象合并模板
const DefaultImpressionTemplate = `根据已有印象和新的对话，更新对该用户的整体印象。
已有印象：
{existing_impression}

相关历史对话：
{history_context}

当前消息：
{message}

要求：保留已有印象中仍然成立的内容，融合新的信息，客观简洁，约 100 字。只返回更新后的印象正文。`

// DefaultAffectionTemplate 默认好感度评估模板
const DefaultAffectionTemplate = `判断当前消息的语气类别（friendly/neutral/negative）。
- friendly：明显的积极情绪、亲昵称呼、感谢或幽默
- neutral：客观陈述、事务性请求、信息确认
- negative：敌意、嘲讽、不耐烦或严厉批评

当前好感度：{affection_score}（{affection_level}）
相关历史对话：
{history_context}

当前消息：
{message}

只返回一行：TYPE: friendly/neutral/negative; REASON: 判断依据`
