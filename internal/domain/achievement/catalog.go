package achievement

// DefaultCatalog возвращает стандартный набор достижений, который
// загружается при старте. Загрузка идемпотентна по имени.
func DefaultCatalog() []Achievement {
	return []Achievement{
		// Отзывы
		{Name: "Первый отзыв", Description: "Оставьте свой первый отзыв", Type: TypeMarksCount, RequirementValue: 1, XPReward: 25},
		{Name: "Активный рецензент", Description: "Оставьте 10 отзывов", Type: TypeMarksCount, RequirementValue: 10, XPReward: 100},
		{Name: "Эксперт по отзывам", Description: "Оставьте 50 отзывов", Type: TypeMarksCount, RequirementValue: 50, XPReward: 500},
		{Name: "Мастер отзывов", Description: "Оставьте 100 отзывов", Type: TypeMarksCount, RequirementValue: 100, XPReward: 1000},

		// Точки
		{Name: "Первый объект", Description: "Создайте свою первую точку на карте", Type: TypePointsCount, RequirementValue: 1, XPReward: 50},
		{Name: "Картограф", Description: "Создайте 10 точек на карте", Type: TypePointsCount, RequirementValue: 10, XPReward: 200},
		{Name: "Мастер картографии", Description: "Создайте 50 точек на карте", Type: TypePointsCount, RequirementValue: 50, XPReward: 1000},

		// Серии
		{Name: "Ежедневная активность", Description: "Оставляйте отзывы каждый день на протяжении 3 дней", Type: TypeMarksStreak, RequirementValue: 3, XPReward: 75},
		{Name: "Неделя активности", Description: "Оставляйте отзывы каждый день на протяжении 7 дней", Type: TypeMarksStreak, RequirementValue: 7, XPReward: 200},
		{Name: "Декада активности", Description: "Оставляйте отзывы каждый день на протяжении 10 дней", Type: TypeMarksStreak, RequirementValue: 10, XPReward: 500},
	}
}
