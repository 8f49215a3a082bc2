package models

// EventRecord is the flat form of a simulation event written to outputs.
type EventRecord struct {
	Timestamp    int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	RunID        string  `json:"runId" parquet:"name=runId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Run          int64   `json:"run" parquet:"name=run,type=INT64"`
	Problem      string  `json:"problem" parquet:"name=problem,type=BYTE_ARRAY,convertedtype=UTF8"`
	Tick         int64   `json:"tick" parquet:"name=tick,type=INT64"`
	EventType    string  `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	VehicleID    int64   `json:"vehicleId" parquet:"name=vehicleId,type=INT64"`
	NodeName     string  `json:"nodeName,omitempty" parquet:"name=nodeName,type=BYTE_ARRAY,convertedtype=UTF8"`
	NodeX        int64   `json:"nodeX" parquet:"name=nodeX,type=INT64"`
	NodeY        int64   `json:"nodeY" parquet:"name=nodeY,type=INT64"`
	EdgeName     string  `json:"edgeName,omitempty" parquet:"name=edgeName,type=BYTE_ARRAY,convertedtype=UTF8"`
	EdgeDuration int64   `json:"edgeDuration" parquet:"name=edgeDuration,type=INT64"`
	OrderID      string  `json:"orderId,omitempty" parquet:"name=orderId,type=BYTE_ARRAY,convertedtype=UTF8"`
	OrderWeight  float64 `json:"orderWeight" parquet:"name=orderWeight,type=DOUBLE"`
	WindowStart  int64   `json:"windowStart" parquet:"name=windowStart,type=INT64"`
	WindowEnd    int64   `json:"windowEnd" parquet:"name=windowEnd,type=INT64"`
}

// RatingRecord is one rater score at the end of a simulation run.
type RatingRecord struct {
	Timestamp int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	RunID     string  `json:"runId" parquet:"name=runId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Run       int64   `json:"run" parquet:"name=run,type=INT64"`
	Problem   string  `json:"problem" parquet:"name=problem,type=BYTE_ARRAY,convertedtype=UTF8"`
	Criteria  string  `json:"criteria" parquet:"name=criteria,type=BYTE_ARRAY,convertedtype=UTF8"`
	Score     float64 `json:"score" parquet:"name=score,type=DOUBLE"`
}
