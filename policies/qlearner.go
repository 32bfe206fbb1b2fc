package policies

// QLearner is a tabular Q-learning learner over discrete state keys
type QLearner struct {
	Alpha       float64
	Gamma       float64
	Table       *QTable
	Exploration *EpsilonGreedy
	AccReward   float64

	state  string
	action int
}

func NewQLearner(start string, actions int, alpha, gamma float64, exploration *EpsilonGreedy) *QLearner {
	q := &QLearner{
		Alpha:       alpha,
		Gamma:       gamma,
		Table:       NewQTable(actions),
		Exploration: exploration,
	}
	q.state = start
	q.Table.Row(start)
	return q
}

// SetState anchors the learner at state without learning, as after an
// environment reset
func (q *QLearner) SetState(state string) {
	q.state = state
}

func (q *QLearner) State() string {
	return q.state
}

func (q *QLearner) Act() int {
	q.action = q.Exploration.Choose(q.Table, q.state)
	return q.action
}

// Learn applies the update for the last action and moves to next
func (q *QLearner) Learn(next string, reward float64) {
	_, maxNext := q.Table.Max(next)
	cur := q.Table.Get(q.state, q.action)
	q.Table.Set(q.state, q.action, cur+q.Alpha*(reward+q.Gamma*maxNext-cur))
	q.state = next
	q.AccReward += reward
}
