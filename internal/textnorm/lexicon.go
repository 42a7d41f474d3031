package textnorm

// DomainTerms are nutrition terms that always segment as one token and get
// a keyword weight bonus.
var DomainTerms = []string{
	"糖尿病", "高血压", "心血管", "冠心病", "脑血管", "骨质疏松", "肌肉衰减",
	"膳食纤维", "蛋白质", "维生素", "矿物质", "微量元素",
	"血糖控制", "降压", "免疫力", "消化吸收", "水分平衡",
	"钙质", "维生素D", "维生素B族", "叶酸", "益生菌",
	"抗氧化", "不饱和脂肪酸", "饱和脂肪酸", "胆固醇",
	"燕麦", "糙米", "全谷类", "豆制品", "深绿色蔬菜",
	"并发症", "营养不良", "消化不良", "食欲不振", "便秘", "失眠",
	"血糖", "血压", "血脂", "缺钙", "补钙", "缺铁", "补铁", "钙", "铁", "锌", "硒",
	"食谱", "菜谱", "膳食", "营养素", "营养", "饮食",
}

// CommonWords are ordinary words used for segmentation only.
var CommonWords = []string{
	"老年人", "老人", "患者", "病人", "疾病", "症状", "食物", "食品", "食材",
	"蔬菜", "水果", "肉类", "奶制品", "牛奶", "豆腐", "鸡蛋", "鱼类", "主食",
	"控制", "管理", "补充", "吸收", "搭配", "安排", "制定", "计划", "建议",
	"原则", "注意", "注意事项", "禁忌", "适合", "适宜", "选择", "推荐",
	"应该", "怎么", "如何", "什么", "哪些", "可以", "能否", "是否", "需要",
	"每天", "一天", "每日", "三餐", "早餐", "午餐", "晚餐", "加餐",
	"总能量", "摄入", "热量", "体重", "运动", "健康", "身体", "问题", "缓解", "改善",
	"低盐", "低糖", "少油", "清淡", "医生", "咨询", "药物", "治疗",
}

// Stopwords are dropped from token streams.
var Stopwords = []string{
	"的", "了", "在", "是", "我", "有", "和", "就", "不", "人",
	"都", "一", "一个", "上", "也", "很", "到", "说", "要", "去",
	"你", "会", "着", "没有", "看", "好", "自己", "这", "那", "些",
	"以", "及", "等", "或", "但", "而", "如", "对", "为", "与",
}

// WeakWords are kept as tokens but never ranked as keywords.
var WeakWords = []string{
	"应该", "怎么", "如何", "什么", "哪些", "可以", "能否", "是否", "需要",
	"一下", "一些", "吗", "呢", "吧", "请问",
}
