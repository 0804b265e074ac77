package ports

type GameMetrics interface {
	RecordMissionSpawned(incidentType string)
	RecordMissionExpired()
	RecordDispatch(vehicles int)
	RecordMissionCompleted()
	RecordPurchase(kind string)
	RecordRefund(kind string)
	RecordRejection(code string)
	RecordTickFailure()
}

type NopMetrics struct{}

func (NopMetrics) RecordMissionSpawned(string) {}
func (NopMetrics) RecordMissionExpired()       {}
func (NopMetrics) RecordDispatch(int)          {}
func (NopMetrics) RecordMissionCompleted()     {}
func (NopMetrics) RecordPurchase(string)       {}
func (NopMetrics) RecordRefund(string)         {}
func (NopMetrics) RecordRejection(string)      {}
func (NopMetrics) RecordTickFailure()          {}
