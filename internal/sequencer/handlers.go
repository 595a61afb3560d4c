package sequencer

func (s *Sequencer) handleMoveHomeToStart(dt float64) transition {
	s.traj.Advance(dt)
	t := transition{next: PhaseMoveHomeToStart, target: s.traj.Position(), object: ObjectAtStart}
	if s.traj.Finished() {
		t.next = PhasePickAtStart
		t.target = s.start
	}
	return t
}

func (s *Sequencer) handlePickAtStart(dt float64) transition {
	s.timer += dt
	t := transition{next: PhasePickAtStart, target: s.start, object: ObjectAtStart}
	if s.timer >= s.params.PickDwell.Seconds() {
		t.next = PhaseMoveStartToGoal
		t.object = ObjectAttached
		t.leg = &leg{from: s.start, to: s.goal}
	}
	return t
}

func (s *Sequencer) handleMoveStartToGoal(dt float64) transition {
	s.traj.Advance(dt)
	t := transition{next: PhaseMoveStartToGoal, target: s.traj.Position(), object: ObjectAttached}
	if s.traj.Finished() {
		t.next = PhasePlaceAtGoal
		t.target = s.goal
	}
	return t
}

func (s *Sequencer) handlePlaceAtGoal(dt float64) transition {
	s.timer += dt
	t := transition{next: PhasePlaceAtGoal, target: s.goal, object: ObjectAttached}
	if s.timer >= s.params.PlaceDwell.Seconds() {
		t.next = PhaseReturnGoalToHome
		t.object = ObjectAtGoal
		t.leg = &leg{from: s.goal, to: s.home}
	}
	return t
}

func (s *Sequencer) handleReturnGoalToHome(dt float64) transition {
	s.traj.Advance(dt)
	t := transition{next: PhaseReturnGoalToHome, target: s.traj.Position(), object: ObjectAtGoal}
	if s.traj.Finished() {
		t.next = PhaseWaitAtHomeReset
		t.target = s.home
	}
	return t
}

func (s *Sequencer) handleWaitAtHomeReset(dt float64) transition {
	s.timer += dt
	t := transition{next: PhaseWaitAtHomeReset, target: s.home, object: ObjectAtGoal}
	if s.timer >= s.params.ResetWait.Seconds() {
		t.next = PhaseMoveHomeToStart
		t.object = ObjectAtStart
		t.leg = &leg{from: s.home, to: s.start}
	}
	return t
}
