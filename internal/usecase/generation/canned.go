package generation

const diabetesAnswer = `您好！关于糖尿病老年人的饮食管理，我为您提供以下专业建议：

**核心饮食原则**：
1. **控制总热量**：根据体重和活动量，建议每日1600-1800千卡
2. **选择低糖指数食物**：优选燕麦、糙米、全麦制品
3. **增加膳食纤维**：每日25-30克，多食用绿叶蔬菜和豆类
4. **定时定量进餐**：建议三餐加两次健康加餐，规律饮食

**推荐食物搭配**：
- **主食**：燕麦片、糙米饭、全麦面条（每餐100-150g）
- **蛋白质**：瘦肉、鱼类、豆腐、鸡蛋（每日100-150g）
- **蔬菜**：菠菜、西兰花、芹菜、黄瓜（每日400-500g）
- **水果**：苹果、梨、柚子（每日100-200g，控制糖分）

**重要注意事项**：
- 定期监测血糖变化，记录饮食与血糖的关系
- 药物调整需咨询内分泌科医生
- 出现低血糖症状时及时处理
- 配合适量运动，促进血糖控制

希望这些建议对您有帮助！如有其他问题，请随时咨询。`

const calciumAnswer = `您好！老年人钙质补充确实很重要，我为您制定科学的补钙方案：

**为什么老年人容易缺钙**：
随着年龄增长，钙的吸收率下降，同时流失增加，容易导致骨质疏松。

**天然食物补钙方案**：
1. **奶制品**（每日250-500ml）
   - 牛奶、酸奶、奶酪
   - 每100ml牛奶含钙约100mg

2. **豆制品**（每日100-150g）
   - 豆腐、豆干、豆浆
   - 100g豆腐含钙约150mg

3. **绿叶蔬菜**（每日200-300g）
   - 菠菜、小白菜、芥蓝
   - 钙含量高且吸收率好

4. **小鱼小虾**（每周2-3次）
   - 带骨小鱼、虾皮
   - 优质钙源

**促进吸收的方法**：
- 适量晒太阳，补充维生素D
- 适度运动，促进骨骼健康
- 避免与咖啡、茶同时大量饮用

**每日推荐搭配**：
- 早餐：牛奶250ml + 豆浆200ml
- 午餐：小白菜100g + 豆腐50g
- 晚餐：菠菜150g + 虾皮5g

这样可达到每日1000-1200mg的推荐摄入量。`

const hypertensionAnswer = `您好！高血压老年人的饮食管理非常重要，我为您提供专业指导：

**降压饮食原则**：
1. **低盐饮食**：每日盐分控制在5-6g以内
2. **增加钾摄入**：多食用香蕉、土豆、西红柿
3. **控制脂肪**：减少饱和脂肪，选择橄榄油等健康油脂
4. **适量蛋白质**：鱼类、豆类为主要来源

**推荐食物**：
- **谷物**：燕麦、糙米、全麦制品
- **蔬菜**：芹菜、菠菜、冬瓜、黄瓜（每日400-500g）
- **水果**：香蕉、苹果、橙子（每日200-300g）
- **蛋白质**：深海鱼、鸡胸肉、豆腐

**烹饪建议**：
- 多用蒸、煮、炖的方式，减少油炸
- 用天然香料调味：姜、蒜、胡椒
- 多用醋、柠檬汁提味
- 食用油每日不超过25g

**注意事项**：
- 定期监测血压变化
- 配合适量运动
- 药物治疗需遵医嘱
- 保持情绪稳定，避免压力`

const dietPlanAnswer = `您好！我为您制定一个营养均衡的老年人一日饮食计划：

**营养目标**：
- 总热量：1600-1800kcal
- 蛋白质：每公斤体重1.0-1.2g
- 膳食纤维：25-30g
- 水分：1200-1500ml

**一日食谱安排**：

**早餐（7:00-8:00）**：
- 小米粥 150ml
- 煮鸡蛋 1个
- 凉拌黄瓜 100g
- 牛奶 250ml

**上午加餐（10:00）**：
- 苹果 150g 或香蕉 100g

**午餐（12:00-13:00）**：
- 二米饭 100g
- 清蒸鱼 100g
- 炒时蔬 150g
- 紫菜蛋花汤 200ml

**下午加餐（15:30）**：
- 无糖酸奶 150ml
- 核桃 3个

**晚餐（18:00-19:00）**：
- 燕麦粥 150ml
- 清炒菠菜 150g
- 清炖豆腐 100g
- 银耳汤 200ml

**制作要点**：
1. 少油少盐，清淡为主
2. 食材新鲜，搭配多样
3. 细嚼慢咽，定时进餐
4. 适量饮水，避免过饱`

const generalAnswer = `您好！感谢您的营养咨询。

**一般营养建议**：
1. **均衡饮食**：确保各类营养素摄入充足
2. **多样化选择**：每日摄入多种颜色的蔬菜水果
3. **适量运动**：配合饮食调整，促进健康
4. **规律作息**：保证充足睡眠，有助营养吸收

**老年人营养要点**：
- 蛋白质：选择优质蛋白，如鱼类、豆类
- 钙质：充足的奶制品和绿叶蔬菜
- 维生素：多种维生素的均衡补充
- 水分：每日1200-1500ml的充足饮水

**温馨提醒**：
每个人的身体状况不同，建议根据个人情况调整饮食。如有特殊疾病或用药情况，请咨询专业医生或营养师。

如您需要更具体的建议，请提供更详细的健康状况信息。`
